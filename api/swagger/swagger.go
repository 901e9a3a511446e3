package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SitSide API",
        "description": "Marketplace connecting parents with vetted student babysitters",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Registration, login and own profile"},
        {"name": "Users", "description": "Sitter discovery and sitter self-service"},
        {"name": "Bookings", "description": "Booking lifecycle, reviews and disputes"},
        {"name": "Admin", "description": "Back-office operations"},
        {"name": "Ops", "description": "Probes and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/APIError"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/profile": {
            "put": {
                "tags": ["Authentication"],
                "summary": "Update own profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            }
        },
        "/auth/verify": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Verify token",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/users/students": {
            "get": {
                "tags": ["Users"],
                "summary": "Browse sitters",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "location", "in": "query", "type": "string"},
                    {"name": "maxRate", "in": "query", "type": "number"},
                    {"name": "experience", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users/students/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Sitter profile",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/users/search": {
            "get": {
                "tags": ["Users"],
                "summary": "Search sitters",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "location", "in": "query", "type": "string"},
                    {"name": "maxRate", "in": "query", "type": "number"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "No search criteria"}}
            }
        },
        "/users/availability": {
            "put": {
                "tags": ["Users"],
                "summary": "Replace weekly availability",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {
                        "type": "object",
                        "properties": {"availability": {"$ref": "#/definitions/Availability"}}
                    }}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Students only"}}
            }
        },
        "/users/certifications": {
            "post": {
                "tags": ["Users"],
                "summary": "Add certification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {
                        "type": "object",
                        "properties": {"certification": {"type": "string"}}
                    }}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            }
        },
        "/users/certifications/{certification}": {
            "delete": {
                "tags": ["Users"],
                "summary": "Remove certification",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "certification", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Request a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"},
                    "403": {"description": "Parents only"},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/bookings/my-bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List own bookings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Booking detail",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}
            }
        },
        "/bookings/{id}/status": {
            "put": {
                "tags": ["Bookings"],
                "summary": "Change booking status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBookingStatusRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Transition not allowed"}}
            }
        },
        "/bookings/{id}/complete": {
            "put": {
                "tags": ["Bookings"],
                "summary": "Mark booking completed",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Transition not allowed"}}
            }
        },
        "/bookings/{id}/review": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Review a completed booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already reviewed or not completed"}}
            }
        },
        "/bookings/{id}/dispute": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Dispute a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DisputeRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Booking cannot be disputed"}}
            }
        },
        "/admin/dashboard": {
            "get": {
                "tags": ["Admin"],
                "summary": "Admin dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admins only"}}
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/users/{id}/toggle": {
            "put": {
                "tags": ["Admin"],
                "summary": "Activate or deactivate a user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admins cannot be deactivated"}}
            }
        },
        "/admin/users/{id}/verify": {
            "put": {
                "tags": ["Admin"],
                "summary": "Record a student's vetting outcome",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyStudentRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Not a student"}}
            }
        },
        "/admin/users/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a user",
                "description": "Users with bookings are deactivated instead",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admins cannot be deleted"}}
            }
        },
        "/admin/bookings": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all bookings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/bookings/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export bookings",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}, "400": {"description": "Invalid format or status"}}
            }
        },
        "/admin/bookings/{id}/dispute": {
            "put": {
                "tags": ["Admin"],
                "summary": "Resolve a disputed booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveDisputeRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not disputed or already resolved"}}
            }
        }
    },
    "definitions": {
        "DayAvailability": {
            "type": "object",
            "properties": {
                "morning": {"type": "boolean"},
                "afternoon": {"type": "boolean"},
                "evening": {"type": "boolean"}
            }
        },
        "Availability": {
            "type": "object",
            "properties": {
                "monday": {"$ref": "#/definitions/DayAvailability"},
                "tuesday": {"$ref": "#/definitions/DayAvailability"},
                "wednesday": {"$ref": "#/definitions/DayAvailability"},
                "thursday": {"$ref": "#/definitions/DayAvailability"},
                "friday": {"$ref": "#/definitions/DayAvailability"},
                "saturday": {"$ref": "#/definitions/DayAvailability"},
                "sunday": {"$ref": "#/definitions/DayAvailability"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "phone": {"type": "string"},
                "userType": {"type": "string", "enum": ["student", "parent"]},
                "grade": {"type": "integer"},
                "school": {"type": "string"},
                "bio": {"type": "string"},
                "hourlyRate": {"type": "number"},
                "experience": {"type": "string"},
                "certifications": {"type": "array", "items": {"type": "string"}},
                "location": {"type": "string"},
                "availability": {"$ref": "#/definitions/Availability"},
                "emergencyContact": {"type": "string"}
            },
            "required": ["email", "password", "firstName", "lastName", "phone", "userType"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "phone": {"type": "string"},
                "bio": {"type": "string"},
                "hourlyRate": {"type": "number"},
                "experience": {"type": "string"},
                "certifications": {"type": "array", "items": {"type": "string"}},
                "location": {"type": "string"},
                "availability": {"$ref": "#/definitions/Availability"},
                "emergencyContact": {"type": "string"},
                "profileImage": {"type": "string"}
            }
        },
        "AuthResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "token": {"type": "string"},
                "expiresIn": {"type": "integer"},
                "user": {"type": "object"}
            }
        },
        "CreateBookingRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "startTime": {"type": "string", "example": "14:00"},
                "endTime": {"type": "string", "example": "18:00"},
                "numberOfChildren": {"type": "integer"},
                "childrenAges": {"type": "array", "items": {"type": "integer"}},
                "specialInstructions": {"type": "string"},
                "emergencyContact": {"type": "string"}
            },
            "required": ["studentId", "date", "startTime", "endTime", "numberOfChildren", "emergencyContact"]
        },
        "UpdateBookingStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["confirmed", "rejected", "cancelled", "completed"]},
                "reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comment": {"type": "string"}
            },
            "required": ["rating"]
        },
        "DisputeRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}},
            "required": ["reason"]
        },
        "ResolveDisputeRequest": {
            "type": "object",
            "properties": {
                "resolution": {"type": "string", "enum": ["refund", "partial_refund", "no_action"]},
                "adminNotes": {"type": "string"}
            },
            "required": ["resolution"]
        },
        "VerifyStudentRequest": {
            "type": "object",
            "properties": {
                "verified": {"type": "boolean"},
                "backgroundCheckStatus": {"type": "string", "enum": ["pending", "approved", "rejected", "not_required"]}
            },
            "required": ["verified"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
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
