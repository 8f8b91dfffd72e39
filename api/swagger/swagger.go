package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campaign API",
        "description": "Course timeline and email campaign scheduling service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Campaigns", "description": "Email campaign scheduling and dispatch"},
        {"name": "TimelineEvents", "description": "Dated course timeline events"},
        {"name": "Surveys", "description": "Survey completion status"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/campaigns": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List campaigns",
                "parameters": [
                    {"name": "course_schedule_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Campaigns"],
                "summary": "Create scheduled campaigns",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCampaignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "Get campaign detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}/send": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Send a campaign immediately",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already processing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/export": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "Export campaigns as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "course_schedule_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV stream"}
                }
            }
        },
        "/campaigns/process-scheduled": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Run the scheduled-email sweep",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/reconcile-stuck": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Fail campaigns stuck in sending",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timeline-events": {
            "get": {
                "tags": ["TimelineEvents"],
                "summary": "List timeline events",
                "parameters": [
                    {"name": "course_schedule_id", "in": "query", "type": "string"},
                    {"name": "event_type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["TimelineEvents"],
                "summary": "Create timeline event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimelineEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timeline-events/{id}": {
            "get": {
                "tags": ["TimelineEvents"],
                "summary": "Get timeline event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["TimelineEvents"],
                "summary": "Update timeline event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTimelineEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["TimelineEvents"],
                "summary": "Delete timeline event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        },
        "/email-templates": {
            "get": {
                "tags": ["TimelineEvents"],
                "summary": "List email templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["TimelineEvents"],
                "summary": "Create email template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEmailTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/course-schedules/{id}/materialize": {
            "post": {
                "tags": ["TimelineEvents"],
                "summary": "Materialize campaigns from pending email events",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/surveys/submissions": {
            "post": {
                "tags": ["Surveys"],
                "summary": "Record a completed survey",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordSubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/surveys/progress": {
            "put": {
                "tags": ["Surveys"],
                "summary": "Save in-flight survey answers",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/survey-status": {
            "get": {
                "tags": ["Surveys"],
                "summary": "Resolve a learner's survey status",
                "parameters": [
                    {"name": "learnerId", "in": "query", "type": "string"},
                    {"name": "name", "in": "query", "type": "string"},
                    {"name": "email", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateCampaignRequest": {
            "type": "object",
            "properties": {
                "course_schedule_id": {"type": "string"},
                "timeline_event_id": {"type": "string"},
                "campaign_type": {"type": "string"},
                "recipients": {"type": "array", "items": {"type": "string"}},
                "scheduled_date": {"type": "string"},
                "scheduled_time": {"type": "string"},
                "subject_template": {"type": "string"},
                "content_template": {"type": "string"},
                "variables": {"type": "object"}
            }
        },
        "CreateTimelineEventRequest": {
            "type": "object",
            "properties": {
                "course_schedule_id": {"type": "string"},
                "event_type": {"type": "string"},
                "event_date": {"type": "string"},
                "event_time": {"type": "string"},
                "email_template_id": {"type": "string"},
                "target_recipients": {"type": "array", "items": {"type": "string"}},
                "event_data": {"type": "object"}
            }
        },
        "UpdateTimelineEventRequest": {
            "type": "object",
            "properties": {
                "event_date": {"type": "string"},
                "event_time": {"type": "string"},
                "email_template_id": {"type": "string"},
                "target_recipients": {"type": "array", "items": {"type": "string"}},
                "event_data": {"type": "object"}
            }
        },
        "CreateEmailTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "subject_template": {"type": "string"},
                "content_template": {"type": "string"}
            }
        },
        "RecordSubmissionRequest": {
            "type": "object",
            "properties": {
                "learner_id": {"type": "string"},
                "learner_name": {"type": "string"},
                "responses": {"type": "object"},
                "status": {"type": "string"}
            }
        },
        "RecordProgressRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "current_section": {"type": "integer"},
                "current_question": {"type": "integer"},
                "answers": {"type": "object"},
                "participant_info": {"type": "object"}
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
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
