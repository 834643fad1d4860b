package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classroom Signal Board API",
        "description": "Students raise requests, the teacher sees and resolves them.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Session", "description": "Entry view: student name and teacher PIN"},
        {"name": "Catalog", "description": "Request types students can raise"},
        {"name": "Student", "description": "Raise, list and withdraw own requests"},
        {"name": "Teacher", "description": "Observe and resolve every request"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Request store unavailable"}
                }
            }
        },
        "/api/v1/catalog": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List request types ordered by priority",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/session/student": {
            "post": {
                "tags": ["Session"],
                "summary": "Start a student session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid name", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/session/teacher": {
            "post": {
                "tags": ["Session"],
                "summary": "Start a teacher session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/TeacherSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid PIN", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/board": {
            "get": {
                "tags": ["Student"],
                "summary": "Catalog buttons and own requests",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "STUDENT_NAME_REQUIRED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/requests": {
            "post": {
                "tags": ["Student"],
                "summary": "Raise a request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RaiseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown request type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/requests/{id}": {
            "delete": {
                "tags": ["Student"],
                "summary": "Withdraw an own request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "confirm", "in": "query", "required": true, "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Request of another student"},
                    "404": {"description": "Not found"},
                    "412": {"description": "Not confirmed"}
                }
            }
        },
        "/api/v1/student/stream": {
            "get": {
                "tags": ["Student"],
                "summary": "Websocket of own requests",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/api/v1/teacher/board": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Every request with actions or indicator",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teacher/requests/{id}/{action}": {
            "post": {
                "tags": ["Teacher"],
                "summary": "Resolve a pending request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "action", "in": "path", "required": true, "type": "string", "enum": ["seen", "accept", "reject"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Already resolved"}
                }
            }
        },
        "/api/v1/teacher/export": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Download the board",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "format", "in": "query", "required": false, "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/api/v1/teacher/stats": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Board activity since start",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teacher/stream": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Websocket of the full board",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        }
    },
    "definitions": {
        "StudentSessionRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 64}
            }
        },
        "TeacherSessionRequest": {
            "type": "object",
            "properties": {
                "pin": {"type": "string"}
            }
        },
        "RaiseRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["urgent", "needHelp", "notFeelingWell", "restroom", "didntUnderstand", "understood"]}
            }
        },
        "RequestRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "studentName": {"type": "string"},
                "type": {"type": "string"},
                "icon": {"type": "string"},
                "message": {"type": "string"},
                "category": {"type": "string", "enum": ["request", "status"]},
                "priority": {"type": "integer"},
                "status": {"type": "string", "enum": ["pending", "seen", "accepted", "rejected"]},
                "displayTime": {"type": "string"},
                "timestamp": {"type": "integer", "format": "int64"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
