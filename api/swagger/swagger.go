package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gestión Municipal API",
        "description": "Back office for municipal reclamos and trámites",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Operator sessions"},
        {"name": "Requests", "description": "Mirrored reclamo/trámite listing"},
        {"name": "Actions", "description": "Lifecycle actions with optimistic confirmation"},
        {"name": "Schedule", "description": "Employee availability"},
        {"name": "Exports", "description": "Listing downloads"}
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
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List requests",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["reclamo", "tramite"]},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get one request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown request"}
                }
            }
        },
        "/requests/{id}/history": {
            "get": {
                "tags": ["Requests"],
                "summary": "Server-owned history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable"}
                }
            }
        },
        "/requests/{id}/suggestion": {
            "get": {
                "tags": ["Requests"],
                "summary": "Assignment suggestion",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK, possibly degraded to empty", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/refresh": {
            "post": {
                "tags": ["Requests"],
                "summary": "Refresh the mirror from upstream",
                "responses": {
                    "204": {"description": "Refreshed"},
                    "409": {"description": "Confirmations in flight"},
                    "502": {"description": "Upstream unavailable"}
                }
            }
        },
        "/requests/{id}/accept": {
            "post": {
                "tags": ["Actions"],
                "summary": "Accept a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcceptRequest"}}
                ],
                "responses": {
                    "202": {"description": "Applied, confirmation pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or action in flight"}
                }
            }
        },
        "/requests/{id}/assign": {
            "post": {
                "tags": ["Actions"],
                "summary": "Assign a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "202": {"description": "Applied, confirmation pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Schedule conflict or invalid block"},
                    "409": {"description": "Illegal transition or action in flight"}
                }
            }
        },
        "/requests/{id}/start": {
            "post": {
                "tags": ["Actions"],
                "summary": "Start work on a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Applied, confirmation pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or action in flight"}
                }
            }
        },
        "/requests/{id}/resolve": {
            "post": {
                "tags": ["Actions"],
                "summary": "Resolve a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveRequest"}}
                ],
                "responses": {
                    "202": {"description": "Applied, confirmation pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or action in flight"}
                }
            }
        },
        "/requests/{id}/reject": {
            "post": {
                "tags": ["Actions"],
                "summary": "Reject a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "202": {"description": "Applied, confirmation pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or action in flight"}
                }
            }
        },
        "/requests/{id}/revert": {
            "post": {
                "tags": ["Actions"],
                "summary": "Revert a request to assigned",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RevertRequest"}}
                ],
                "responses": {
                    "202": {"description": "Applied, confirmation pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or action in flight"}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Employee availability",
                "parameters": [
                    {"name": "employee_id", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "search_next", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable"}
                }
            }
        },
        "/schedule/session": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Scheduling session state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Discard the scheduling session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/schedule/selection": {
            "put": {
                "tags": ["Schedule"],
                "summary": "Select employee and date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing employee or date"}
                }
            }
        },
        "/schedule/proposal": {
            "put": {
                "tags": ["Schedule"],
                "summary": "Propose a time block",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit/actions": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit lines",
                "parameters": [
                    {"name": "request_id", "in": "query", "type": "string"},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "outcome", "in": "query", "type": "string", "enum": ["APPLIED", "CONFIRMED", "ROLLED_BACK"]},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown outcome"}
                }
            }
        },
        "/audit/stats": {
            "get": {
                "tags": ["Audit"],
                "summary": "Audit outcome summary",
                "parameters": [
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/requests.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export listing as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/exports/requests.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export listing as PDF",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "AcceptRequest": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"},
                "estimate": {"type": "string"},
                "assignee_id": {"type": "string"}
            },
            "required": ["comment"]
        },
        "AssignRequest": {
            "type": "object",
            "properties": {
                "assignee_id": {"type": "string"},
                "schedule": {"$ref": "#/definitions/ScheduleInput"},
                "comment": {"type": "string"}
            },
            "required": ["assignee_id"]
        },
        "SelectionRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "date": {"type": "string"}
            },
            "required": ["employee_id", "date"]
        },
        "ProposalRequest": {
            "type": "object",
            "properties": {
                "start": {"type": "string"},
                "duration": {"type": "number"}
            },
            "required": ["start", "duration"]
        },
        "ScheduleInput": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "start": {"type": "string"},
                "duration": {"type": "number"}
            },
            "required": ["date", "start", "duration"]
        },
        "ResolveRequest": {
            "type": "object",
            "properties": {
                "resolution": {"type": "string"}
            },
            "required": ["resolution"]
        },
        "RejectRequest": {
            "type": "object",
            "properties": {
                "reason_code": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["reason_code"]
        },
        "RevertRequest": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"}
            },
            "required": ["comment"]
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
