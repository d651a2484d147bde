package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Review API",
        "description": "Course review platform with anonymous per-offering reviews",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Accounts and sessions"},
        {"name": "Reviews", "description": "Course review submission and moderation"},
        {"name": "Courses", "description": "Course catalog, search and course pages"},
        {"name": "Instructors", "description": "Instructor roster"},
        {"name": "Catalog", "description": "Departments and semesters"},
        {"name": "Users", "description": "Profiles and account administration"},
        {"name": "Encouragements", "description": "Landing-page sentences"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Locked or unverified account"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "User id or email taken"}
                }
            }
        },
        "/auth/verify/{token}": {
            "get": {
                "tags": ["Auth"],
                "summary": "Redeem an email verification token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Verified"},
                    "404": {"description": "Unknown or used token"}
                }
            }
        },
        "/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List reviews",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit a course review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReviewRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course or semester"},
                    "409": {"description": "Duplicate active review"}
                }
            }
        },
        "/reviews/check": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Check whether the caller already reviewed an offering",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courseId", "in": "query", "required": true, "type": "string"},
                    {"name": "semesterId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reviews/{id}": {
            "delete": {
                "tags": ["Reviews"],
                "summary": "Delete a review (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalog courses",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Course exists"}
                }
            }
        },
        "/courses/search": {
            "get": {
                "tags": ["Courses"],
                "summary": "Search courses with review aggregates",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["latest", "reviews", "rating"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course page with offerings and review stats",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/courses/{id}/reviews/export": {
            "get": {
                "tags": ["Courses"],
                "summary": "Export a course's reviews as CSV or PDF (admin)",
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Instructors"],
                "summary": "List instructors",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/encouragements/random": {
            "get": {
                "tags": ["Encouragements"],
                "summary": "A random encouragement sentence",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "None available"}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "The caller's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["userId", "password"]
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"}
            },
            "required": ["userId", "email", "password", "firstName", "lastName"]
        },
        "SubmitReviewRequest": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "semesterId": {"type": "string"},
                "contentRating": {"type": "integer", "minimum": 0, "maximum": 10},
                "teachingRating": {"type": "integer", "minimum": 0, "maximum": 10},
                "gradingRating": {"type": "integer", "minimum": 0, "maximum": 10},
                "workloadRating": {"type": "integer", "minimum": 0, "maximum": 10},
                "comment": {"type": "string", "maxLength": 2000},
                "instructorIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["courseId", "semesterId", "contentRating", "teachingRating", "gradingRating", "workloadRating"]
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "departmentId": {"type": "string"},
                "name": {"type": "string"},
                "credits": {"type": "integer"},
                "description": {"type": "string"}
            },
            "required": ["courseId", "departmentId", "name"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"}
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
