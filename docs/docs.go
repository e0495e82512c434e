// Package docs registers the OpenAPI description served by the Swagger UI.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}}
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/user.User"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.LoginResult"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Server misconfigured or internal error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Reset password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "403": {"description": "Not the caller's account", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List products",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/product.Product"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Create a product",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/product.Input"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/product.Product"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "409": {"description": "Duplicate SKU", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Get a product",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/product.Product"}},
                    "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Update a product",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/product.Input"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/product.Product"}},
                    "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Delete a product",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/products/{id}/image": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Upload a product image",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/product.UploadResponse"}},
                    "400": {"description": "Invalid upload", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Upload failed", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List audit log entries",
                "parameters": [
                    {"type": "integer", "default": 50, "maximum": 100, "name": "take", "in": "query"},
                    {"type": "integer", "default": 0, "name": "skip", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/audit.Entry"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "audit.Entry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "action": {"type": "string", "example": "product.create"},
                "entity": {"type": "string", "example": "product"},
                "entityId": {"type": "integer"},
                "payload": {"type": "object", "additionalProperties": true},
                "createdAt": {"type": "string"},
                "user": {"$ref": "#/definitions/audit.UserRef"}
            }
        },
        "audit.UserRef": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "email": {"type": "string"}}
        },
        "auth.CredentialsRequest": {
            "type": "object",
            "properties": {"email": {"type": "string", "example": "a@b.com"}, "password": {"type": "string", "example": "secret1"}}
        },
        "auth.LoginResult": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/auth.UserSummary"}}
        },
        "auth.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "auth.UserSummary": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "email": {"type": "string"}}
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {"ok": {"type": "boolean"}}
        },
        "httputil.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "string"}}
        },
        "product.Input": {
            "type": "object",
            "required": ["name", "sku"],
            "properties": {
                "name": {"type": "string", "example": "Widget"},
                "sku": {"type": "string", "example": "W-001"},
                "price": {"type": "number", "example": 9.99},
                "stock": {"type": "integer", "example": 10}
            }
        },
        "product.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "sku": {"type": "string"},
                "price": {"type": "number"},
                "stock": {"type": "integer"},
                "imageUrl": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "product.UploadResponse": {
            "type": "object",
            "properties": {"ok": {"type": "boolean"}, "imageUrl": {"type": "string"}}
        },
        "user.User": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "email": {"type": "string"}, "createdAt": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3001",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "StockTrack API",
	Description:      "Inventory API with bearer authentication and an audit log of product changes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
