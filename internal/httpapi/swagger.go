//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"
	httpSwagger "github.com/swaggo/http-swagger"
)

// swaggerDoc is the OpenAPI description served at /swagger/doc.json. It is
// kept in sync with the godoc annotations on the handlers.
const swaggerDoc = `{
  "swagger": "2.0",
  "info": {"title": "{{.Title}}", "version": "{{.Version}}", "description": "{{escape .Description}}"},
  "basePath": "{{.BasePath}}",
  "paths": {
    "/api/scale-factors": {"get": {"tags": ["upscale"], "summary": "Supported scale factors", "produces": ["application/json"],
      "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ScaleFactorsResponse"}}}}},
    "/api/upscale": {"post": {"tags": ["upscale"], "summary": "Upscale an image", "consumes": ["multipart/form-data"], "produces": ["application/json"],
      "parameters": [
        {"name": "file", "in": "formData", "type": "file", "required": true},
        {"name": "mode", "in": "formData", "type": "string", "enum": ["factor", "resolution"]},
        {"name": "scale_factor", "in": "formData", "type": "integer"},
        {"name": "target_width", "in": "formData", "type": "integer"},
        {"name": "target_height", "in": "formData", "type": "integer"}
      ],
      "responses": {
        "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UpscaleResponse"}},
        "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
        "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
        "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
        "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
      }}},
    "/api/download/{filename}": {"get": {"tags": ["upscale"], "summary": "Download an upscaled image", "produces": ["application/octet-stream"],
      "parameters": [{"name": "filename", "in": "path", "type": "string", "required": true}],
      "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}}
  },
  "definitions": {
    "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}},
    "types.ScaleFactorsResponse": {"type": "object", "properties": {
      "scale_factors": {"type": "array", "items": {"type": "integer"}},
      "native_scales": {"type": "array", "items": {"type": "integer"}},
      "max_target_dimension": {"type": "integer"}}},
    "types.UpscaleResponse": {"type": "object", "properties": {
      "success": {"type": "boolean"}, "output_file": {"type": "string"}, "message": {"type": "string"},
      "original_size": {"type": "string"}, "upscaled_size": {"type": "string"},
      "native_scale": {"type": "integer"}, "duration_ms": {"type": "integer"}}}
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "upscaled API",
	Description:      "HTTP API for factor and resolution image upscaling.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerDoc,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI at /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
