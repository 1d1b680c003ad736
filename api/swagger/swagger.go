package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Report Card API",
        "description": "Report card aggregation, grade entry and missing-grade tracking.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "ReportCards", "description": "Report card assembly and grade entry"},
        {"name": "Exports", "description": "PDF, CSV and XLSX report card exports"},
        {"name": "MissingGrades", "description": "Grades a teacher has yet to enter"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness check against Postgres and Redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Metrics in exposition format"}}
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["System"],
                "summary": "Service metrics snapshot (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/report-cards/{studentId}": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Student report card for a term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Data fetch error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["ReportCards"],
                "summary": "Upsert a report and the caller's grades on it",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveReportCardRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Subject not taught by caller", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Partial write; details list failed subjects", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/reports/{reportId}/grades/{subjectId}": {
            "put": {
                "tags": ["ReportCards"],
                "summary": "Upsert one grade on an existing report",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "reportId", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRequest"}}
                ],
                "responses": {"200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["ReportCards"],
                "summary": "Delete one grade",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "reportId", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Grade not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/{studentId}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export a report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv", "xlsx"], "default": "pdf"}
                ],
                "responses": {"201": {"description": "Stored; data holds a signed download URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored export by signed token",
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Link expired, invalid or issued to another user", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/missing-grades": {
            "get": {
                "tags": ["MissingGrades"],
                "summary": "Students missing grades in the caller's courses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"},
                    {"name": "teacherId", "in": "query", "required": false, "type": "string", "description": "Admins only"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/missing-grades/notify": {
            "post": {
                "tags": ["MissingGrades"],
                "summary": "Queue a missing-grade notification for the caller",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NotifyMissingGradesRequest"}}
                ],
                "responses": {"202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "GradeRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "classScore": {"type": "number"},
                "examScore": {"type": "number"},
                "position": {"type": "string"},
                "teacherRemark": {"type": "string"},
                "teacherSignature": {"type": "string"}
            }
        },
        "SaveReportCardRequest": {
            "type": "object",
            "properties": {
                "term": {"type": "string"},
                "academicYear": {"type": "string"},
                "attendance": {"type": "string"},
                "conduct": {"type": "string"},
                "classTeacherRemarks": {"type": "string"},
                "headTeacherRemarks": {"type": "string"},
                "classTeacherSignature": {"type": "string"},
                "headTeacherSignature": {"type": "string"},
                "grades": {"type": "array", "items": {"$ref": "#/definitions/GradeRequest"}}
            }
        },
        "NotifyMissingGradesRequest": {
            "type": "object",
            "properties": {
                "term": {"type": "string"},
                "academicYear": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
