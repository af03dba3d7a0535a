// Package docs holds the OpenAPI document served under /swagger. It mirrors the
// handler annotations; regenerate with `swag init -g cmd/server/main.go` when they change.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/api/analyze": {
            "post": {
                "description": "Spreads signals for the selected pairs across the time window and drops entries closer than the minimum gap",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Generate a signal schedule",
                "parameters": [{"description": "Analysis settings", "name": "settings", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AnalysisSettings"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/algorithm": {
            "post": {
                "description": "Computes indicators, the rule score and the trade levels; candles are fetched when omitted",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Evaluate one pair",
                "parameters": [{"description": "Pair and optional candles", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.algorithmRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Evaluation"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/pairs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List tradable pairs",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/api/indicators": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Default indicator catalog",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/api/indicators/compute": {
            "post": {
                "description": "An empty series yields the neutral snapshot",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["indicators"],
                "summary": "Compute an indicator snapshot",
                "parameters": [{"description": "Chronological candles", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.computeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.IndicatorSnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/indicators/score": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["indicators"],
                "summary": "Score an indicator snapshot",
                "parameters": [{"description": "Indicator snapshot and threshold", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.scoreRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ScoreResult"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/market-data": {
            "get": {
                "produces": ["application/json"],
                "tags": ["market"],
                "summary": "Market feed status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.MarketStatus"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Symbols without a live quote get a synthetic price near 1.0",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["market"],
                "summary": "Current prices",
                "parameters": [{"description": "{\"symbols\": [\"EUR/USD-OTC\"]}", "name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"symbols": {"type": "array", "items": {"type": "string"}}}}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/telegram": {
            "get": {
                "produces": ["application/json"],
                "tags": ["telegram"],
                "summary": "Telegram bot account",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["telegram"],
                "summary": "Deliver signals to a chat",
                "parameters": [{"description": "Chat id, signals and timeframe", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.telegramRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/channels": {
            "get": {
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "List broadcast channels",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Registering an existing chat id updates its name and re-enables it",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Register a broadcast channel",
                "parameters": [{"description": "Channel", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.channelRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.TelegramChannel"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/channels/{id}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Enable or disable a channel",
                "parameters": [
                    {"type": "string", "description": "Channel ID", "name": "id", "in": "path", "required": true},
                    {"description": "New state", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.channelUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "tags": ["channels"],
                "summary": "Remove a channel",
                "parameters": [{"type": "string", "description": "Channel ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.Candle": {
            "type": "object",
            "properties": {
                "open": {"type": "number"},
                "high": {"type": "number"},
                "low": {"type": "number"},
                "close": {"type": "number"},
                "timestamp": {"type": "integer"}
            }
        },
        "domain.ScoreResult": {
            "type": "object",
            "properties": {
                "direction": {"type": "string", "enum": ["CALL", "PUT"]},
                "strength": {"type": "string"},
                "confidence": {"type": "number"},
                "successRate": {"type": "number"},
                "profitRate": {"type": "number"},
                "buyScore": {"type": "number"},
                "sellScore": {"type": "number"},
                "meetsThreshold": {"type": "boolean"}
            }
        },
        "domain.Signal": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "pair": {"type": "string"},
                "direction": {"type": "string", "enum": ["CALL", "PUT"]},
                "duration": {"type": "integer"},
                "confidence": {"type": "integer"},
                "timestamp": {"type": "string", "format": "date-time"},
                "entryTime": {"type": "string"},
                "indicators": {"type": "array", "items": {"type": "string"}},
                "price": {"type": "number"},
                "reason": {"type": "string"}
            }
        },
        "handler.algorithmRequest": {
            "type": "object",
            "properties": {
                "pair": {"type": "string"},
                "timeframe": {"type": "string"},
                "candles": {"type": "array", "items": {"$ref": "#/definitions/domain.Candle"}},
                "threshold": {"type": "integer"}
            }
        },
        "handler.channelRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "chatId": {"type": "string"}
            }
        },
        "handler.channelUpdate": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"}
            }
        },
        "handler.computeRequest": {
            "type": "object",
            "properties": {
                "candles": {"type": "array", "items": {"$ref": "#/definitions/domain.Candle"}}
            }
        },
        "handler.scoreRequest": {
            "type": "object",
            "required": ["indicators"],
            "properties": {
                "indicators": {"$ref": "#/definitions/domain.IndicatorSnapshot"},
                "threshold": {"type": "integer"}
            }
        },
        "handler.telegramRequest": {
            "type": "object",
            "properties": {
                "chatId": {"description": "Numeric chat id or @channel name"},
                "signals": {"type": "array", "items": {"$ref": "#/definitions/domain.Signal"}},
                "timeframe": {"type": "string"},
                "settings": {"$ref": "#/definitions/domain.AnalysisSettings"}
            }
        },
        "service.Evaluation": {
            "type": "object",
            "properties": {
                "pair": {"type": "string"},
                "timeframe": {"type": "string"},
                "indicators": {"$ref": "#/definitions/domain.IndicatorSnapshot"},
                "score": {"$ref": "#/definitions/domain.ScoreResult"},
                "levels": {"$ref": "#/definitions/signal.Levels"},
                "readings": {"type": "object", "additionalProperties": {"$ref": "#/definitions/signal.Reading"}},
                "fromStore": {"type": "boolean"}
            }
        },
        "service.MarketStatus": {
            "type": "object",
            "properties": {
                "connected": {"type": "boolean"},
                "timestamp": {"type": "integer"}
            }
        },
        "signal.Levels": {
            "type": "object",
            "properties": {
                "entryPrice": {"type": "number"},
                "exitPrice": {"type": "number"},
                "entryTime": {"type": "string", "format": "date-time"},
                "exitTime": {"type": "string", "format": "date-time"}
            }
        },
        "signal.Reading": {
            "type": "object",
            "properties": {
                "value": {"type": "number"},
                "signal": {"type": "string"}
            }
        },
        "domain.AnalysisSettings": {
            "type": "object",
            "properties": {
                "selectedPairs": {"type": "array", "items": {"type": "string"}},
                "timeframe": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "timezone": {"type": "string"},
                "successThreshold": {"type": "integer"},
                "historicalDays": {"type": "integer"},
                "martingaleLevel": {"type": "integer"},
                "indicators": {"type": "array", "items": {"$ref": "#/definitions/domain.IndicatorConfig"}},
                "aiModel": {"type": "string"}
            }
        },
        "domain.IndicatorConfig": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "enabled": {"type": "boolean"},
                "category": {"type": "string"}
            }
        },
        "domain.IndicatorSnapshot": {
            "type": "object",
            "properties": {
                "rsi": {"type": "number"},
                "macd": {"type": "number"},
                "macdSignal": {"type": "number"},
                "ma20": {"type": "number"},
                "ma50": {"type": "number"},
                "stochastic": {"type": "number"},
                "ema21": {"type": "number"},
                "atr": {"type": "number"},
                "adx": {"type": "number"},
                "price": {"type": "number"}
            }
        },
        "domain.TelegramChannel": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "chatId": {"type": "string"},
                "enabled": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "OTC Signals API",
	Description:      "OTC trading signal analysis with Telegram delivery.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
