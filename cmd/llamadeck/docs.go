package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           llamadeck admin API
// @version         1.0
// @description     Status and metrics endpoints for a running inference stack.
//
// @contact.name   llamadeck maintainers
// @contact.url    https://github.com/your-org/llamadeck
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
