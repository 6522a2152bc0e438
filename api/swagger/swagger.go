package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Admissions API",
        "description": "Inquiry intake, six-stage enrollment workflow and registration finalization",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Authentication", "description": "Staff sessions"},
        {"name": "Inquiries", "description": "First-contact intake and action plans"},
        {"name": "Enrollments", "description": "Six-stage enrollment workflow"},
        {"name": "Notes", "description": "Append-only enrollment audit notes"},
        {"name": "Registration", "description": "Registration details and finalization"},
        {"name": "Documents", "description": "Enrollment document submission"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate staff user",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
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
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {"204": {"description": "Logged out"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/inquiries": {
            "get": {
                "tags": ["Inquiries"],
                "summary": "List inquiries",
                "parameters": [
                    {"name": "program_id", "in": "query", "type": "string"},
                    {"name": "counselor_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "created_from", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Inquiries"],
                "summary": "Record inquiry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInquiryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/inquiries/{id}": {
            "get": {
                "tags": ["Inquiries"],
                "summary": "Get inquiry",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Inquiry ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/inquiries/{id}/status": {
            "patch": {
                "tags": ["Inquiries"],
                "summary": "Change inquiry status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Inquiry ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateInquiryStatusRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Status locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/inquiries/{id}/action-plan": {
            "put": {
                "tags": ["Inquiries"],
                "summary": "Replace action plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Inquiry ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ReplaceActionPlanRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/inquiries/{id}/action-plan/{taskId}/complete": {
            "post": {
                "tags": ["Inquiries"],
                "summary": "Complete action plan task",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Inquiry ID"},
                    {"name": "taskId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/inquiries/{id}/promote": {
            "post": {
                "tags": ["Inquiries"],
                "summary": "Promote inquiry to enrollment (idempotent)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Inquiry ID"}],
                "responses": {
                    "200": {"description": "Already promoted, meta.created=false", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created, meta.created=true", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Inquiry not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "program_id", "in": "query", "type": "string"},
                    {"name": "counselor_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "current_step", "in": "query", "type": "integer"},
                    {"name": "registered", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "created_from", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Create enrollment",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/pipeline": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Enrollment counts per stage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/export": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Export enrollment roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "program_id", "in": "query", "type": "string"},
                    {"name": "counselor_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "current_step", "in": "query", "type": "integer"},
                    {"name": "registered", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "created_from", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV or PDF file", "schema": {"type": "file"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment with ledger and notes",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/advance": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Advance to next stage",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"}],
                "responses": {
                    "200": {"description": "Enrollment with meta.outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent update or registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/retreat": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Move back one stage",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"}],
                "responses": {
                    "200": {"description": "Enrollment with meta.outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent update or registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/steps/{step}/complete": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Mark a ledger step completed",
                "description": "Completing the current stage also advances the pointer; other stages only update the ledger.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"},
                    {"name": "step", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Enrollment with meta.outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent update or registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid step", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/notes": {
            "get": {
                "tags": ["Notes"],
                "summary": "List notes, newest first",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Notes"],
                "summary": "Append note",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/registration": {
            "get": {
                "tags": ["Registration"],
                "summary": "Get registration details",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Registration"],
                "summary": "Save registration details",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SaveRegistrationRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Enrollment registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/registration/finalize": {
            "post": {
                "tags": ["Registration"],
                "summary": "Finalize registration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {"$ref": "#/definitions/FinalizeRegistrationRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Enrollment with meta.finalized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Stage precondition failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/enrollments/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List documents",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Enrollment ID"},
                    {"name": "document_type", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/documents/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download document via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [{"name": "token", "in": "query", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List staff accounts",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "SUPERADMIN only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get staff account",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "User ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update staff account",
                "description": "Changes name, role or active flag. Accounts cannot demote or deactivate themselves.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "User ID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Self demotion", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Deactivate staff account",
                "description": "Marks the account inactive and revokes its refresh sessions.",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "User ID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "security": [{"BearerAuth": []}]
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}},
            "required": ["email", "password"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["SUPERADMIN", "ADMIN", "COUNSELOR", "REGISTRAR"]},
                "password": {"type": "string", "minLength": 8}
            },
            "required": ["email", "full_name", "role", "password"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["SUPERADMIN", "ADMIN", "COUNSELOR", "REGISTRAR"]},
                "active": {"type": "boolean"}
            }
        },
        "RefreshTokenRequest": {"type": "object", "properties": {"refresh_token": {"type": "string"}}, "required": ["refresh_token"]},
        "CreateInquiryRequest": {
            "type": "object",
            "properties": {
                "student_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "program_id": {"type": "string"},
                "counselor_id": {"type": "string"},
                "lead_source_id": {"type": "string"},
                "notes": {"type": "string"},
                "action_plan": {"type": "array", "items": {"$ref": "#/definitions/ActionTaskRequest"}}
            },
            "required": ["student_name", "program_id"]
        },
        "ActionTaskRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "completed"]}
            },
            "required": ["title"]
        },
        "ReplaceActionPlanRequest": {
            "type": "object",
            "properties": {
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/ActionTaskRequest"}}
            }
        },
        "UpdateInquiryStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["new", "contacted", "follow-up", "converted", "lost"]}
            },
            "required": ["status"]
        },
        "CreateEnrollmentRequest": {
            "type": "object",
            "properties": {"student_name": {"type": "string"}, "program_id": {"type": "string"}, "counselor_id": {"type": "string"}},
            "required": ["student_name", "program_id"]
        },
        "CreateNoteRequest": {"type": "object", "properties": {"content": {"type": "string"}}, "required": ["content"]},
        "SaveRegistrationRequest": {
            "type": "object",
            "properties": {"personal": {"type": "object"}, "academic": {"type": "object"}, "payment": {"type": "object"}}
        },
        "FinalizeRegistrationRequest": {
            "type": "object",
            "properties": {"pending": {"$ref": "#/definitions/SaveRegistrationRequest"}}
        },
        "Pagination": {
            "type": "object",
            "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}
        },
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
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
