package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mentoria API",
        "description": "Enrollment and identity resolution service for the mentoria platform",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Identity", "description": "Phone-based identity resolution and role linking"},
        {"name": "Classes", "description": "Roster classification and overflow reporting"},
        {"name": "Enrollments", "description": "Course exchange"},
        {"name": "Imports", "description": "Bulk roster imports"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/identity/resolve": {
            "post": {
                "tags": ["Identity"],
                "summary": "Resolve a phone number to a role-tagged record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid phone", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Record store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/identity/link": {
            "post": {
                "tags": ["Identity"],
                "summary": "Link a resolved role onto an account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LinkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Account already linked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/roster": {
            "get": {
                "tags": ["Classes"],
                "summary": "Classify a class roster into enrolled and overflow",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/overflow-report": {
            "get": {
                "tags": ["Classes"],
                "summary": "Report classes whose roster exceeds capacity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/enrollments/exchange": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Move a student between classes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExchangeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Target class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Precondition failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/roster": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import a third-party roster in resumable batches",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ResolveRequest": {
            "type": "object",
            "required": ["phone"],
            "properties": {
                "phone": {"type": "string"}
            }
        },
        "LinkRequest": {
            "type": "object",
            "required": ["role", "entity_id"],
            "properties": {
                "account_id": {"type": "integer"},
                "role": {"type": "string", "enum": ["ADMIN", "MENTOR", "STUDENT"]},
                "entity_id": {"type": "integer"},
                "force": {"type": "boolean"}
            }
        },
        "ExchangeRequest": {
            "type": "object",
            "required": ["student_id", "from_class_id", "to_class_ref"],
            "properties": {
                "student_id": {"type": "integer"},
                "from_class_id": {"type": "integer"},
                "to_class_ref": {"type": "string"}
            }
        },
        "ImportRequest": {
            "type": "object",
            "required": ["rows"],
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/ImportRow"}},
                "offset": {"type": "integer"}
            }
        },
        "ImportRow": {
            "type": "object",
            "required": ["name", "school"],
            "properties": {
                "name": {"type": "string"},
                "tax_id": {"type": "string"},
                "school": {"type": "string"},
                "class": {"type": "string"}
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
                "pagination": {"type": "object"},
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
