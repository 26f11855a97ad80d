// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a bearer token",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.loginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Save pending changes and close the session",
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/catalog": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "List starter habits",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.CatalogEntry"}}}
                }
            }
        },
        "/habits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "List habits with today's completion status",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD, defaults to today", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.habitListResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Add or replace a habit",
                "parameters": [
                    {"description": "habit", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.addHabitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Habit"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/habits/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Get one habit with today's completion status",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.HabitStatus"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Remove a habit and its completions",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}}
                }
            }
        },
        "/habits/{id}/complete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Mark a habit done for a day",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD, defaults to today", "name": "date", "in": "query"},
                    {"description": "alternative to the query parameter", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/http.dateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.completeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Undo a completion",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD, defaults to today", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}}
                }
            }
        },
        "/habits/{id}/completions/{date}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Check a habit's completion on a day",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Dashboard numbers: streak, weekly progress, completion rate",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD, defaults to today", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Stats"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/snapshot": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Download the tracking document",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Snapshot"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Replace the tracking document",
                "parameters": [
                    {"description": "document", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.Snapshot"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Save now instead of waiting for the background writer",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/data": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["sync"],
                "summary": "Delete every habit, completion and activity day",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "domain.CatalogEntry": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "icon": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["build", "break"]},
                "name": {"type": "string"}
            }
        },
        "domain.Habit": {
            "type": "object",
            "properties": {
                "bestStreak": {"type": "integer"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["build", "break"]},
                "lastCompletedDate": {"type": "string", "example": "2024-01-31"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}},
                "streak": {"type": "integer"}
            }
        },
        "domain.HabitStatus": {
            "type": "object",
            "properties": {
                "bestStreak": {"type": "integer"},
                "completedToday": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "lastCompletedDate": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}},
                "streak": {"type": "integer"}
            }
        },
        "domain.DayStat": {
            "type": "object",
            "properties": {
                "completed_count": {"type": "integer"},
                "date": {"type": "string"},
                "percentage": {"type": "number"},
                "total_count": {"type": "integer"}
            }
        },
        "domain.Stats": {
            "type": "object",
            "properties": {
                "best_streak": {"type": "integer"},
                "completed_today": {"type": "integer"},
                "completion_rate": {"type": "number"},
                "current_streak": {"type": "integer"},
                "date": {"type": "string"},
                "total_habits": {"type": "integer"},
                "weekly_progress": {"type": "array", "items": {"$ref": "#/definitions/domain.DayStat"}}
            }
        },
        "domain.Snapshot": {
            "type": "object",
            "properties": {
                "activityLog": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "habitCompletion": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "habits": {"type": "object", "additionalProperties": {"$ref": "#/definitions/domain.Habit"}},
                "updatedAt": {"type": "string"},
                "version": {"type": "integer"}
            }
        },
        "http.addHabitRequest": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "date": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "http.completeResponse": {
            "type": "object",
            "properties": {
                "already_completed": {"type": "boolean"},
                "found": {"type": "boolean"},
                "habit": {"$ref": "#/definitions/domain.Habit"}
            }
        },
        "http.dateRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"}
            }
        },
        "http.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "http.habitListResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "habits": {"type": "array", "items": {"$ref": "#/definitions/domain.HabitStatus"}}
            }
        },
        "http.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.loginResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/http.userResponse"}
            }
        },
        "http.registerRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "timezone": {"type": "string", "example": "Europe/Rome"}
            }
        },
        "http.userResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "timezone": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "HabitFlow Sync Engine API",
	Description:      "Habit tracking with streaks, weekly progress and whole-document sync.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
