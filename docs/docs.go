// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
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
                "description": "Returns service status",
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespOK"}}}
            }
        },
        "/api/webhooks/whop": {
            "post": {
                "description": "Receives Whop membership events. The body must be the raw signed payload; svix-id, svix-timestamp and svix-signature headers are required.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Whop Webhook",
                "parameters": [{"description": "Whop webhook payload", "name": "payload", "in": "body", "required": true, "schema": {"type": "string"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookAck"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/subscription": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the caller's current membership, claiming an unlinked one bought with the caller's email if needed. subscription is null when there is none.",
                "produces": ["application/json"],
                "tags": ["Membership"],
                "summary": "Get Subscription",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.GetSubscriptionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/cancel-subscription": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Cancels the caller's active membership at the end of the current billing period.",
                "produces": ["application/json"],
                "tags": ["Membership"],
                "summary": "Cancel Subscription",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CancelSubscriptionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/v1/admin/membership_statistic": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Retrieves membership counts by status, link state, plan and creation day.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Get Membership Statistics (Admin)",
                "parameters": [{"description": "Statistic request parameters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/statistics.MembershipStatisticRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespMembershipStatistic"}}}
            }
        },
        "/api/v1/admin/list_memberships": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Retrieves a paginated and filterable list of memberships, newest first.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List Memberships (Admin)",
                "parameters": [{"description": "Filters and pagination", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/statistics.ListMembershipsRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespListMemberships"}}}
            }
        },
        "/api/v1/admin/list_unlinked": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Lists memberships that no internal user has claimed yet, oldest first.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List Unlinked Memberships (Admin)",
                "parameters": [{"description": "Age threshold and limit", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ListUnlinkedRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespListMemberships"}}}
            }
        }
    },
    "definitions": {
        "response.ErrorBody": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "error": {"type": "string"}}
        },
        "handlers.RespOK": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "data": {}, "message": {"type": "string"}}
        },
        "handlers.WebhookAck": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "handlers.Subscription": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "provider_membership_id": {"type": "string"},
                "status": {"type": "string"},
                "plan_id": {"type": "string"},
                "plan_name": {"type": "string"},
                "plan_price_cents": {"type": "integer"},
                "plan_interval": {"type": "string"},
                "renewal_period_start": {"type": "string"},
                "renewal_period_end": {"type": "string"},
                "cancel_at_period_end": {"type": "boolean"},
                "canceled_at": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "handlers.GetSubscriptionResponse": {
            "type": "object",
            "properties": {"subscription": {"$ref": "#/definitions/handlers.Subscription"}}
        },
        "handlers.CancelSubscriptionResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}, "renewal_period_end": {"type": "string"}}
        },
        "handlers.ListUnlinkedRequest": {
            "type": "object",
            "properties": {"older_than": {"type": "string"}, "limit": {"type": "integer"}}
        },
        "handlers.MembershipItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "provider_membership_id": {"type": "string"},
                "provider_plan_id": {"type": "string"},
                "provider_user_email": {"type": "string"},
                "provider_user_id": {"type": "string"},
                "internal_user_id": {"type": "string"},
                "status": {"type": "string"},
                "plan_name": {"type": "string"},
                "plan_price_cents": {"type": "integer"},
                "plan_interval": {"type": "string"},
                "renewal_period_end": {"type": "string"},
                "cancel_at_period_end": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.ListMembershipsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/handlers.MembershipItem"}},
                "total": {"type": "integer"}
            }
        },
        "handlers.RespListMemberships": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {"$ref": "#/definitions/handlers.ListMembershipsResponse"}}
        },
        "types.CommonFilter": {
            "type": "object",
            "properties": {"field": {"type": "string"}, "operator": {"type": "string"}, "values": {"type": "array", "items": {}}}
        },
        "statistics.ListMembershipsRequest": {
            "type": "object",
            "properties": {
                "filters": {"type": "array", "items": {"$ref": "#/definitions/types.CommonFilter"}},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"}
            }
        },
        "statistics.MembershipStatisticRequest": {
            "type": "object",
            "properties": {
                "filters": {"type": "array", "items": {"$ref": "#/definitions/types.CommonFilter"}},
                "data_items": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}}}}
            }
        },
        "statistics.MembershipStatisticResponse": {
            "type": "object",
            "properties": {"data_items": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "object", "properties": {"date": {"type": "string"}, "label": {"type": "string"}, "value": {"type": "integer"}}}}}}
        },
        "handlers.RespMembershipStatistic": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {"$ref": "#/definitions/statistics.MembershipStatisticResponse"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8888",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Memberlink API",
	Description:      "Links Whop memberships to internal user accounts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
