package main

// General API documentation for swaggo. Build with `-tags swagger` to serve it.
//
// @title           upscaled API
// @version         1.0
// @description     HTTP API for adaptive multi-pass image upscaling.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
