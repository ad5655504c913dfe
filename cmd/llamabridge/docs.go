package main

// General API documentation for swaggo. Regenerate internal/httpapi/docs with
// `swag init -g cmd/llamabridge/docs.go -d ./,./internal/httpapi,./pkg/types -o internal/httpapi/docs`.
//
// @title           llamabridge API
// @version         1.0
// @description     HTTP surface over a single in-process llama.cpp runtime.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
