package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Camp Registry API",
        "description": "Reconciliation and validation engine for camp registration feeds",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Operator login"},
        {"name": "Camps", "description": "Camp provisioning"},
        {"name": "Registrations", "description": "Registration sync, classification and workflow"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate operator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current operator claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/camps": {
            "get": {
                "tags": ["Camps"],
                "summary": "List camps",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Camps"],
                "summary": "Provision camp",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCampRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Slug already exists"}
                }
            }
        },
        "/camps/{campID}": {
            "get": {
                "tags": ["Camps"],
                "summary": "Get camp",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Camps"],
                "summary": "Delete camp and its history",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/camps/{campID}/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Sync feed and list classified registrations",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Feed unreadable"}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Add local registration",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddRegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            },
            "put": {
                "tags": ["Registrations"],
                "summary": "Modify one registration or a batch",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ModifyRegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown id aborts the whole batch"}
                }
            }
        },
        "/camps/{campID}/registrations/{id}": {
            "delete": {
                "tags": ["Registrations"],
                "summary": "Delete registration and renumber ids",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/camps/{campID}/registrations/acceptance": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Update acceptance workflow state",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcceptanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No registrations matched"}
                }
            }
        },
        "/camps/{campID}/registrations/classification": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Current classification counts",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Classification"}}
                }
            }
        },
        "/camps/{campID}/registrations/export": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Export registrations as CSV or PDF report",
                "parameters": [
                    {"name": "campID", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateCampRequest": {
            "type": "object",
            "required": ["slug", "name", "sheet_id"],
            "properties": {
                "slug": {"type": "string"},
                "name": {"type": "string"},
                "sheet_id": {"type": "string"}
            }
        },
        "AddRegistrationRequest": {
            "type": "object",
            "required": ["fields"],
            "properties": {
                "fields": {"type": "object", "description": "Column name to value, order preserved"}
            }
        },
        "ModifyRegistrationRequest": {
            "type": "object",
            "required": ["id", "fields"],
            "properties": {
                "id": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "AcceptanceRequest": {
            "type": "object",
            "required": ["ids", "status"],
            "properties": {
                "ids": {"type": "array", "items": {"type": "integer"}},
                "status": {"type": "string", "enum": ["pending", "accepted", "rejected"]}
            }
        },
        "Classification": {
            "type": "object",
            "properties": {
                "valid_count": {"type": "integer"},
                "invalid_count": {"type": "integer"},
                "duplicate_count": {"type": "integer"},
                "sibling_groups_count": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "classification": {"$ref": "#/definitions/Classification"},
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
