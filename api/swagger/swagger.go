package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "BPS Inventory API",
        "description": "IT asset and assignment tracking for the BPS secretariat",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "in": "header", "name": "Cookie"},
        "Bearer": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "paths": {
        "/health": {
            "get": {"tags": ["System"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness probe (postgres, redis)",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Degraded"}}
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Start a session",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "End the current session",
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/profile": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user, roles and effective permissions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change own password",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ChangePasswordRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/ajax/update-activity": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh the idle timer",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/ajax/check-session": {
            "get": {
                "tags": ["Auth"],
                "summary": "Remaining session time without refreshing it",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "User with role grants",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/users/{id}/edit-roles": {
            "post": {
                "tags": ["Users"],
                "summary": "Replace role grants",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/EditRolesRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/users/{id}/toggle-status": {
            "post": {
                "tags": ["Users"],
                "summary": "Activate or deactivate a user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/roles": {
            "get": {
                "tags": ["Users"],
                "summary": "Role catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Quick stats, system stats and notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices": {
            "get": {
                "tags": ["Devices"],
                "summary": "List devices",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "condition", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "device_type", "in": "query", "type": "string"},
                    {"name": "vendor", "in": "query", "type": "string"},
                    {"name": "critical", "in": "query", "type": "boolean"},
                    {"name": "warranty_days", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Devices"],
                "summary": "Register device",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateDeviceRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices/{id}": {
            "get": {
                "tags": ["Devices"],
                "summary": "Device detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices/{id}/edit": {
            "post": {
                "tags": ["Devices"],
                "summary": "Update device",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateDeviceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices/{id}/delete": {
            "post": {
                "tags": ["Devices"],
                "summary": "Retire device",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices/bulk-actions": {
            "post": {
                "tags": ["Devices"],
                "summary": "Bulk retire, set condition or generate QR",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BulkDeviceActionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices/{id}/history": {
            "get": {
                "tags": ["Devices"],
                "summary": "Assignment history of a device",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/devices/{id}/escalate": {
            "post": {
                "tags": ["Devices"],
                "summary": "Flag a device critical",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "overdue", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a device",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments/overdue": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Overdue assignments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments/bulk": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign many devices",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BulkAssignRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments/{id}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Assignment with history",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments/{id}/transfer": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Transfer to a new target",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/TransferAssignmentRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments/{id}/return": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Return device",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ReturnAssignmentRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/assignments/{id}/extend": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Extend expected return date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ExtendAssignmentRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/staff/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Assignments of a staff member",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/departments/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Assignments of a department",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/buildings": {
            "get": {
                "tags": ["Registry"],
                "summary": "List buildings",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registry"],
                "summary": "Create building",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/buildings/{id}/rename": {
            "post": {
                "tags": ["Registry"],
                "summary": "Rename building",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RenameOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/buildings/{id}/deactivate": {
            "post": {
                "tags": ["Registry"],
                "summary": "Deactivate building",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/blocks": {
            "get": {
                "tags": ["Registry"],
                "summary": "List blocks",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registry"],
                "summary": "Create block",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/blocks/{id}/rename": {
            "post": {
                "tags": ["Registry"],
                "summary": "Rename block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RenameOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/blocks/{id}/deactivate": {
            "post": {
                "tags": ["Registry"],
                "summary": "Deactivate block",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/floors": {
            "get": {
                "tags": ["Registry"],
                "summary": "List floors",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registry"],
                "summary": "Create floor",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/floors/{id}/rename": {
            "post": {
                "tags": ["Registry"],
                "summary": "Rename floor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RenameOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/floors/{id}/deactivate": {
            "post": {
                "tags": ["Registry"],
                "summary": "Deactivate floor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/departments": {
            "get": {
                "tags": ["Registry"],
                "summary": "List departments",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registry"],
                "summary": "Create department",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/departments/{id}/rename": {
            "post": {
                "tags": ["Registry"],
                "summary": "Rename department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RenameOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/departments/{id}/deactivate": {
            "post": {
                "tags": ["Registry"],
                "summary": "Deactivate department",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/rooms": {
            "get": {
                "tags": ["Registry"],
                "summary": "List rooms",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registry"],
                "summary": "Create room",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/rooms/{id}/rename": {
            "post": {
                "tags": ["Registry"],
                "summary": "Rename room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RenameOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/rooms/{id}/deactivate": {
            "post": {
                "tags": ["Registry"],
                "summary": "Deactivate room",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/locations": {
            "get": {
                "tags": ["Registry"],
                "summary": "List locations",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registry"],
                "summary": "Create location",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/locations/{id}/rename": {
            "post": {
                "tags": ["Registry"],
                "summary": "Rename location",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RenameOrgNodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/locations/{id}/deactivate": {
            "post": {
                "tags": ["Registry"],
                "summary": "Deactivate location",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/locations/resolve": {
            "get": {
                "tags": ["Registry"],
                "summary": "Resolve a qualified location path",
                "parameters": [
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "block", "in": "query", "type": "string"},
                    {"name": "floor", "in": "query", "type": "integer"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "room", "in": "query", "type": "string"},
                    {"name": "location", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/departments/code": {
            "get": {
                "tags": ["Registry"],
                "summary": "Suggest a department code",
                "parameters": [
                    {"name": "floor", "in": "query", "type": "string"},
                    {"name": "name", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/staff": {
            "get": {
                "tags": ["Staff"],
                "summary": "List staff",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Staff"],
                "summary": "Register staff",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateStaffRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/staff/{id}": {
            "get": {
                "tags": ["Staff"],
                "summary": "Staff detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/staff/{id}/edit": {
            "post": {
                "tags": ["Staff"],
                "summary": "Update staff",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateStaffRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/staff/{id}/deactivate": {
            "post": {
                "tags": ["Staff"],
                "summary": "Deactivate staff",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/staff/{id}/delete": {
            "post": {
                "tags": ["Staff"],
                "summary": "Delete staff without history",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/vendors": {
            "get": {
                "tags": ["Vendors"],
                "summary": "List vendors",
                "parameters": [
                    {"name": "all", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Vendors"],
                "summary": "Create vendor",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateVendorRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/vendors/{id}": {
            "get": {
                "tags": ["Vendors"],
                "summary": "Vendor detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/vendors/{id}/activate": {
            "post": {
                "tags": ["Vendors"],
                "summary": "Activate vendor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/vendors/{id}/deactivate": {
            "post": {
                "tags": ["Vendors"],
                "summary": "Deactivate vendor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/categories": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalogue"],
                "summary": "Create category",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateCategoryRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/subcategories": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List subcategories",
                "parameters": [{"name": "category", "in": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalogue"],
                "summary": "Create subcategory",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateSubcategoryRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/device-types": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List device types",
                "parameters": [{"name": "subcategory", "in": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalogue"],
                "summary": "Create device type",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateDeviceTypeRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "List schedules",
                "parameters": [
                    {"name": "device", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Maintenance"],
                "summary": "Schedule maintenance",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateMaintenanceRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/overdue": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Open schedules past their date",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/upcoming": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Upcoming schedules",
                "parameters": [{"name": "days", "in": "query", "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/{id}": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Schedule detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/{id}/start": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Start work",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/{id}/complete": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Complete work",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CompleteMaintenanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/{id}/cancel": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Cancel schedule",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inventory/maintenance/{id}/postpone": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Postpone schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PostponeMaintenanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/generate/{device_id}": {
            "post": {
                "tags": ["QR"],
                "summary": "Generate QR image for a device",
                "parameters": [{"name": "device_id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/image/{device_id}": {
            "get": {
                "tags": ["QR"],
                "summary": "QR PNG for a device",
                "parameters": [{"name": "device_id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/bulk-generate": {
            "post": {
                "tags": ["QR"],
                "summary": "Generate QR codes for many devices",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BulkGenerateQRRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/print-labels": {
            "post": {
                "tags": ["QR"],
                "summary": "Render printable label sheet",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/PrintLabelsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/verify/{device_id}": {
            "get": {
                "tags": ["QR"],
                "summary": "Anonymous verification",
                "parameters": [{"name": "device_id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/verify/{device_id}": {
            "post": {
                "tags": ["QR"],
                "summary": "Authenticated verification",
                "parameters": [{"name": "device_id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/scan/mobile": {
            "post": {
                "tags": ["QR"],
                "summary": "Mobile scan",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MobileScanRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/scan/history": {
            "get": {
                "tags": ["QR"],
                "summary": "Scan history",
                "parameters": [
                    {"name": "device", "in": "query", "type": "string"},
                    {"name": "scan_type", "in": "query", "type": "string"},
                    {"name": "success", "in": "query", "type": "boolean"},
                    {"name": "scanned_by", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/batch-verify": {
            "post": {
                "tags": ["QR"],
                "summary": "Verify many codes",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BatchVerifyRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/qr/analytics": {
            "get": {
                "tags": ["QR"],
                "summary": "Scan analytics",
                "parameters": [{"name": "days", "in": "query", "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{type}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report preview",
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "categoryId", "in": "query", "type": "string"},
                    {"name": "departmentId", "in": "query", "type": "string"},
                    {"name": "columns", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{type}/export": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a CSV or PDF export",
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ReportExportRequest"}
                    }
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/jobs/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an export through its signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "remember_me": {"type": "boolean"}
            }
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {"current_password": {"type": "string"}, "new_password": {"type": "string"}}
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "EditRolesRequest": {
            "type": "object",
            "properties": {
                "roles": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "role": {"type": "string"},
                            "department_id": {"type": "string"},
                            "start_date": {"type": "string"},
                            "end_date": {"type": "string"}
                        }
                    }
                }
            }
        },
        "CreateDeviceRequest": {
            "type": "object",
            "properties": {
                "asset_tag": {"type": "string"},
                "serial_number": {"type": "string"},
                "device_type_id": {"type": "string"},
                "device_name": {"type": "string"},
                "brand": {"type": "string"},
                "model": {"type": "string"},
                "condition": {"type": "string"},
                "vendor_id": {"type": "string"},
                "purchase_date": {"type": "string"},
                "purchase_price": {"type": "string"},
                "warranty_end_date": {"type": "string"},
                "is_critical": {"type": "boolean"}
            }
        },
        "UpdateDeviceRequest": {
            "type": "object",
            "properties": {
                "device_name": {"type": "string"},
                "condition": {"type": "string"},
                "status": {"type": "string"},
                "location_id": {"type": "string"},
                "is_critical": {"type": "boolean"}
            }
        },
        "BulkDeviceActionRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "device_ids": {"type": "array", "items": {"type": "string"}},
                "condition": {"type": "string"}
            }
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "assigned_to_staff": {"type": "string"},
                "assigned_to_department": {"type": "string"},
                "assigned_to_location": {"type": "string"},
                "assignment_type": {"type": "string"},
                "purpose": {"type": "string"},
                "is_temporary": {"type": "boolean"},
                "start_date": {"type": "string"},
                "expected_return_date": {"type": "string"}
            }
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "device_ids": {"type": "array", "items": {"type": "string"}},
                "assignment_type": {"type": "string"},
                "assigned_to_staff": {"type": "string"},
                "assigned_to_department": {"type": "string"}
            }
        },
        "TransferAssignmentRequest": {
            "type": "object",
            "properties": {
                "assigned_to_staff": {"type": "string"},
                "assigned_to_department": {"type": "string"},
                "assigned_to_location": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReturnAssignmentRequest": {
            "type": "object",
            "properties": {"return_condition": {"type": "string"}, "notes": {"type": "string"}}
        },
        "ExtendAssignmentRequest": {
            "type": "object",
            "properties": {"expected_return_date": {"type": "string"}, "reason": {"type": "string"}}
        },
        "CreateOrgNodeRequest": {
            "type": "object",
            "properties": {
                "parent_id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "floor_number": {"type": "integer"},
                "room_number": {"type": "string"},
                "capacity": {"type": "integer"},
                "location_type": {"type": "string"}
            }
        },
        "RenameOrgNodeRequest": {"type": "object", "properties": {"name": {"type": "string"}}},
        "CreateStaffRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "full_name": {"type": "string"},
                "designation": {"type": "string"},
                "department_id": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "joining_date": {"type": "string"}
            }
        },
        "UpdateStaffRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "designation": {"type": "string"},
                "department_id": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "CreateVendorRequest": {
            "type": "object",
            "properties": {
                "vendor_code": {"type": "string"},
                "name": {"type": "string"},
                "vendor_type": {"type": "string"},
                "contact_person": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"}
            }
        },
        "CreateCategoryRequest": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "name": {"type": "string"}, "description": {"type": "string"}}
        },
        "CreateSubcategoryRequest": {
            "type": "object",
            "properties": {"category_id": {"type": "string"}, "code": {"type": "string"}, "name": {"type": "string"}}
        },
        "CreateDeviceTypeRequest": {
            "type": "object",
            "properties": {
                "subcategory_id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateMaintenanceRequest": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "maintenance_type": {"type": "string"},
                "scheduled_date": {"type": "string"},
                "vendor_id": {"type": "string"},
                "description": {"type": "string"},
                "estimated_cost": {"type": "string"}
            }
        },
        "CompleteMaintenanceRequest": {
            "type": "object",
            "properties": {
                "actual_cost": {"type": "string"},
                "notes": {"type": "string"},
                "condition_after": {"type": "string"}
            }
        },
        "PostponeMaintenanceRequest": {
            "type": "object",
            "properties": {"scheduled_date": {"type": "string"}, "reason": {"type": "string"}}
        },
        "BulkGenerateQRRequest": {"type": "object", "properties": {"device_ids": {"type": "array", "items": {"type": "string"}}}},
        "PrintLabelsRequest": {
            "type": "object",
            "properties": {
                "device_ids": {"type": "array", "items": {"type": "string"}},
                "label_size": {"type": "string"},
                "bundle": {"type": "boolean"}
            }
        },
        "MobileScanRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "scan_type": {"type": "string"},
                "scan_location": {"type": "string"},
                "location_id": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "BatchVerifyRequest": {
            "type": "object",
            "properties": {
                "codes": {"type": "array", "items": {"type": "string"}},
                "scan_location": {"type": "string"},
                "location_id": {"type": "string"}
            }
        },
        "ReportExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string"},
                "dateFrom": {"type": "string"},
                "dateTo": {"type": "string"},
                "status": {"type": "string"},
                "categoryId": {"type": "string"},
                "departmentId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
