package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "Serves a directory of markdown notes as HTML pages",
        "title": "Notesweb",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/",
    "schemes": ["http"],
    "paths": {
        "/": {
            "get": {
                "tags": ["Notes"],
                "summary": "Note index",
                "description": "Lists every note under the notes root, in lexical path order",
                "produces": ["text/html"],
                "responses": {
                    "200": {
                        "description": "Index page"
                    },
                    "500": {
                        "description": "Notes root could not be walked"
                    }
                }
            }
        },
        "/{folder}/{id}": {
            "get": {
                "tags": ["Notes"],
                "summary": "Render a note",
                "description": "Renders {folder}/{id} plus the notes extension. The root alias addresses the notes root itself and folder may span several segments. Missing or unreadable notes render a fallback page.",
                "produces": ["text/html"],
                "parameters": [
                    {
                        "in": "path",
                        "name": "folder",
                        "type": "string",
                        "required": true,
                        "description": "Folder relative to the notes root, or the root alias"
                    },
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "File name without extension"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Rendered note or fallback page"
                    },
                    "400": {
                        "description": "Malformed note path"
                    },
                    "404": {
                        "description": "Note not found (strict status only)"
                    },
                    "500": {
                        "description": "Note unreadable (strict status only)"
                    }
                }
            }
        },
        "/static/{file}": {
            "get": {
                "tags": ["Static"],
                "summary": "Static asset",
                "parameters": [
                    {
                        "in": "path",
                        "name": "file",
                        "type": "string",
                        "required": true,
                        "description": "Path below the static directory"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File contents"
                    },
                    "404": {
                        "description": "No such file"
                    }
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness check",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Server is running"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness check",
                "description": "Checks that the notes root can be listed",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Notes root unavailable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {
                        "description": "Metrics in the Prometheus text format"
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Notesweb",
	Description:      "Serves a directory of markdown notes as HTML pages",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
