// Package docs registers the swagger spec for the local HTTP surface.
// Regenerate with `go generate ./cmd/syncd`.
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
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/sync-local/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync engine status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/service.SyncStatus"}
                    }
                }
            }
        },
        "/sync-local/activity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Recent sync activity",
                "parameters": [
                    {"type": "integer", "description": "max events (default 20, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SyncActivity"}}
                    }
                }
            }
        },
        "/sync-local/trigger": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Run a full sync now",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.SyncLog"}
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {"type": "object", "additionalProperties": true}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        },
        "/sync-local/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync run history",
                "parameters": [
                    {"type": "string", "description": "FULL, ORDERS, CUSTOMERS, MENU, CONFIG", "name": "type", "in": "query"},
                    {"type": "string", "description": "IN_PROGRESS, COMPLETED, FAILED, PARTIAL", "name": "status", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "page offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        },
        "/sync-local/logs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync run by id",
                "parameters": [
                    {"type": "string", "description": "run id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.SyncLog"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        }
    },
    "definitions": {
        "models.SyncActivity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "direction": {"type": "string"},
                "success": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        },
        "models.SyncLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "syncType": {"type": "string"},
                "status": {"type": "string"},
                "itemsSynced": {"type": "integer"},
                "itemsFailed": {"type": "integer"},
                "errors": {"type": "object"},
                "metadata": {"type": "object"},
                "startedAt": {"type": "string"},
                "completedAt": {"type": "string"},
                "duration": {"type": "integer"}
            }
        },
        "service.SyncStats": {
            "type": "object",
            "properties": {
                "pullCount": {"type": "integer"},
                "successfulPulls": {"type": "integer"},
                "failedPulls": {"type": "integer"},
                "lastPullTime": {"type": "string"},
                "nextPullTime": {"type": "string"}
            }
        },
        "service.SyncStatus": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "webSocketEnabled": {"type": "boolean"},
                "webSocketConnected": {"type": "boolean"},
                "webSocketFailed": {"type": "boolean"},
                "remoteUrl": {"type": "string"},
                "mode": {"type": "string"},
                "intervalMinutes": {"type": "integer"},
                "stats": {"$ref": "#/definitions/service.SyncStats"},
                "syncing": {"type": "boolean"},
                "lastRun": {"$ref": "#/definitions/models.SyncLog"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Bite Sync Daemon API",
	Description:      "Local status, activity and manual trigger for the cloud sync engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
