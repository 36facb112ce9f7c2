package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const swaggerTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Notifier tracking and registration snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.NotifierSnapshot"}}
                }
            }
        },
        "/registrations/{name}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Handlers that would fire if the event were published now",
                "parameters": [
                    {"type": "string", "description": "Event name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RegistrationsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "summary": "Prometheus metrics",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "types.NameCount": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "cart.updated"},
                "registrations": {"type": "integer", "example": 3}
            }
        },
        "types.NotifierSnapshot": {
            "type": "object",
            "properties": {
                "tracked_bags": {"type": "integer", "example": 4},
                "live_bags": {"type": "integer", "example": 3},
                "names": {"type": "array", "items": {"$ref": "#/definitions/types.NameCount"}},
                "publishes_total": {"type": "integer", "example": 120},
                "pruned_total": {"type": "integer", "example": 2},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1700000000}
            }
        },
        "types.RegistrationsResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "cart.updated"},
                "count": {"type": "integer", "example": 2}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "event name is required"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "bark introspection API",
	Description:      "Read-only view of an in-process notifier: tracked bags, registrations and metrics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI and doc.json under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
