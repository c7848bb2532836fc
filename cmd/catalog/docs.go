package main

// @title Catalog Service API
// @version 1.0
// @description Product and category catalog with permission checks, response caching and real-time notifications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/product-catalog
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/product-catalog/blob/main/LICENSE

// @host localhost:8081
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Products
// @tag.description Product management endpoints

// @tag.name Stock
// @tag.description Stock level endpoints

// @tag.name Categories
// @tag.description Category management endpoints

// @tag.name Reports
// @tag.description Dashboard and statistics endpoints

// @tag.name Swagger
// @tag.description Swagger documentation endpoints
