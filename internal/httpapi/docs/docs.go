// Package docs registers the OpenAPI document of the llamabridge HTTP API
// with swag. Regenerate with `swag init -g cmd/llamabridge/docs.go -o internal/httpapi/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/model": {
            "post": {
                "tags": [
                    "model"
                ],
                "summary": "Load a model",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.LoadModelResponse"
                        }
                    },
                    "400": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.LoadModelResponse"
                        }
                    },
                    "422": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.LoadModelResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.LoadModelRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "model"
                ],
                "summary": "Unload the model, projector and pending media",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    }
                }
            }
        },
        "/v1/mmproj": {
            "post": {
                "tags": [
                    "model"
                ],
                "summary": "Load a multimodal projector",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.ProjectorResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.ProjectorResponse"
                        }
                    },
                    "422": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.ProjectorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.PathRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "model"
                ],
                "summary": "Unload the multimodal projector",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    }
                }
            }
        },
        "/v1/media/file": {
            "post": {
                "tags": [
                    "media"
                ],
                "summary": "Stage an image or audio file",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "422": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.PathRequest"
                        }
                    }
                ]
            }
        },
        "/v1/media/encoded": {
            "post": {
                "tags": [
                    "media"
                ],
                "summary": "Stage encoded media bytes",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "422": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.EncodedMediaRequest"
                        }
                    }
                ]
            }
        },
        "/v1/media/rgb": {
            "post": {
                "tags": [
                    "media"
                ],
                "summary": "Stage raw RGB pixels",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "400": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.RGBMediaRequest"
                        }
                    }
                ]
            }
        },
        "/v1/media/audio": {
            "post": {
                "tags": [
                    "media"
                ],
                "summary": "Stage mono float32 PCM audio",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    },
                    "422": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.AudioMediaRequest"
                        }
                    }
                ]
            }
        },
        "/v1/media": {
            "delete": {
                "tags": [
                    "media"
                ],
                "summary": "Drop staged media",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.MediaResponse"
                        }
                    }
                }
            }
        },
        "/v1/tokenize": {
            "post": {
                "tags": [
                    "text"
                ],
                "summary": "Tokenize text",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.TokenizeResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.TokenizeResponse"
                        }
                    },
                    "422": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.TokenizeResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.TokenizeRequest"
                        }
                    }
                ]
            }
        },
        "/v1/detokenize": {
            "post": {
                "tags": [
                    "text"
                ],
                "summary": "Convert tokens back to text",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.DetokenizeResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.DetokenizeResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.DetokenizeRequest"
                        }
                    }
                ]
            }
        },
        "/v1/generation": {
            "post": {
                "tags": [
                    "generation"
                ],
                "summary": "Begin a stepwise generation",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    },
                    "400": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.GenerateRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "generation"
                ],
                "summary": "Accumulated output and last fragment",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.GenerationState"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "generation"
                ],
                "summary": "End the generation and free its sampler",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    }
                }
            }
        },
        "/v1/generation/next": {
            "post": {
                "tags": [
                    "generation"
                ],
                "summary": "Produce the next fragment",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.StepResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.StepResponse"
                        }
                    }
                }
            }
        },
        "/v1/generation/cancel": {
            "post": {
                "tags": [
                    "generation"
                ],
                "summary": "Request cancellation of the running generation",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.Result"
                        }
                    }
                }
            }
        },
        "/v1/generate": {
            "post": {
                "tags": [
                    "generation"
                ],
                "summary": "Run a generation to completion",
                "produces": [
                    "application/json",
                    "application/x-ndjson"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.GenerateResponse"
                        }
                    },
                    "409": {
                        "description": "failure",
                        "schema": {
                            "$ref": "#/definitions/types.GenerateResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/types.GenerateRequest"
                        }
                    }
                ]
            }
        },
        "/v1/info": {
            "get": {
                "tags": [
                    "info"
                ],
                "summary": "Runtime summary",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.InfoResponse"
                        }
                    }
                }
            }
        },
        "/v1/backends": {
            "get": {
                "tags": [
                    "info"
                ],
                "summary": "Re-enumerate compute backends",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.BackendsResponse"
                        }
                    }
                }
            }
        },
        "/v1/models": {
            "get": {
                "tags": [
                    "info"
                ],
                "summary": "GGUF files in the configured models directory",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.ModelsResponse"
                        }
                    }
                }
            }
        },
        "/v1/metadata": {
            "get": {
                "tags": [
                    "info"
                ],
                "summary": "GGUF metadata of the loaded model",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/v1/last-error": {
            "get": {
                "tags": [
                    "info"
                ],
                "summary": "Message of the most recent failed call",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.LastErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "types.ModelFile": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "path": {
                    "type": "string"
                },
                "size_bytes": {
                    "type": "integer"
                },
                "projector": {
                    "type": "boolean"
                }
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "dir": {
                    "type": "string"
                },
                "models": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/types.ModelFile"
                    }
                }
            }
        },
        "types.Result": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "code": {
                    "type": "integer"
                }
            }
        },
        "types.LoadModelRequest": {
            "type": "object",
            "properties": {
                "path": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "n_ctx": {
                    "type": "integer"
                },
                "threads": {
                    "type": "integer"
                },
                "gpu_layers": {
                    "type": "integer"
                }
            }
        },
        "types.LoadModelResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "context_size": {
                    "type": "integer"
                },
                "metadata": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "types.PathRequest": {
            "type": "object",
            "properties": {
                "path": {
                    "type": "string"
                }
            }
        },
        "types.ProjectorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "vision": {
                    "type": "boolean"
                },
                "audio": {
                    "type": "boolean"
                }
            }
        },
        "types.EncodedMediaRequest": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "string",
                    "format": "base64"
                }
            }
        },
        "types.RGBMediaRequest": {
            "type": "object",
            "properties": {
                "width": {
                    "type": "integer"
                },
                "height": {
                    "type": "integer"
                },
                "data": {
                    "type": "string",
                    "format": "base64"
                }
            }
        },
        "types.AudioMediaRequest": {
            "type": "object",
            "properties": {
                "samples": {
                    "type": "array",
                    "items": {
                        "type": "number"
                    }
                }
            }
        },
        "types.MediaResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "pending": {
                    "type": "integer"
                }
            }
        },
        "types.TokenizeRequest": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string"
                },
                "add_special": {
                    "type": "boolean"
                }
            }
        },
        "types.TokenizeResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                },
                "tokens": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            }
        },
        "types.DetokenizeRequest": {
            "type": "object",
            "properties": {
                "tokens": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "token_text": {
                    "type": "string"
                },
                "special": {
                    "type": "boolean"
                }
            }
        },
        "types.DetokenizeResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "prompt": {
                    "type": "string"
                },
                "n_predict": {
                    "type": "integer"
                },
                "stream": {
                    "type": "boolean"
                },
                "temperature": {
                    "type": "number"
                },
                "top_k": {
                    "type": "integer"
                },
                "top_p": {
                    "type": "number"
                },
                "repeat_penalty": {
                    "type": "number"
                },
                "grammar": {
                    "type": "string"
                },
                "seed": {
                    "type": "integer"
                }
            }
        },
        "types.StepResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "done": {
                    "type": "boolean"
                },
                "fragment": {
                    "type": "string"
                }
            }
        },
        "types.GenerationState": {
            "type": "object",
            "properties": {
                "output": {
                    "type": "string"
                },
                "last_fragment": {
                    "type": "string"
                }
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "output": {
                    "type": "string"
                }
            }
        },
        "types.InfoResponse": {
            "type": "object",
            "properties": {
                "loaded": {
                    "type": "boolean"
                },
                "context_size": {
                    "type": "integer"
                },
                "accelerated": {
                    "type": "boolean"
                },
                "vision": {
                    "type": "boolean"
                },
                "audio": {
                    "type": "boolean"
                },
                "pending_media": {
                    "type": "integer"
                }
            }
        },
        "types.BackendsResponse": {
            "type": "object",
            "properties": {
                "backends": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "accelerated": {
                    "type": "boolean"
                }
            }
        },
        "types.LastErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                }
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
	Title:            "llamabridge API",
	Description:      "HTTP surface over a single in-process llama.cpp runtime.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
