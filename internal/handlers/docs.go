package handlers

import "net/http"

func queryParam(name, description string, required bool, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    required,
		"schema":      schema,
	}
}

var formatParam = queryParam("format", "Response format (default: json)", false, map[string]interface{}{
	"type":    "string",
	"enum":    []string{"json", "text", "markdown", "csv", "html"},
	"default": "json",
})

var displayTableSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"columns": map[string]interface{}{
			"type":  "array",
			"items": map[string]string{"type": "string"},
		},
		"rows": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":  "array",
				"items": map[string]string{"type": "string"},
			},
		},
		"unresolved": map[string]string{"type": "integer"},
	},
}

var errorResponses = map[string]interface{}{
	"400": map[string]interface{}{"description": "Invalid input (unknown school or player, bad year or format)"},
	"502": map[string]interface{}{"description": "Stored statistics do not match the table columns"},
	"500": map[string]interface{}{"description": "Internal error"},
}

func withErrors(ok map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"200": ok}
	for code, resp := range errorResponses {
		out[code] = resp
	}
	return out
}

// OpenAPISpec returns the OpenAPI 3.0 specification of the stats API
func (h *StatsHandler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "NCAA Baseball Stats API",
			"description": "Display-ready team and player tables built from precomputed college baseball statistics",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/schools": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List schools",
					"description": "School directory ordered by name",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"school_id": map[string]string{"type": "integer"},
														"name":      map[string]string{"type": "string"},
														"division":  map[string]string{"type": "integer"},
													},
												},
											},
											"total": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/teams/stats": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Team season stats",
					"description": "Batting table sorted by wRC (descending) and pitching table sorted by FIP (ascending)",
					"parameters": []map[string]interface{}{
						queryParam("school", "School name", true, map[string]interface{}{"type": "string"}),
						queryParam("year", "Season", true, map[string]interface{}{"type": "integer", "minimum": 2013, "maximum": 2023}),
						formatParam,
					},
					"responses": withErrors(map[string]interface{}{
						"description": "Successful response",
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"school_id": map[string]string{"type": "integer"},
										"school":    map[string]string{"type": "string"},
										"season":    map[string]string{"type": "integer"},
										"division":  map[string]string{"type": "string"},
										"batting":   displayTableSchema,
										"pitching":  displayTableSchema,
									},
								},
							},
						},
					}),
				},
			},
			"/api/players/stats": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Player career stats",
					"description": "One row per season with the school and division of that season; pitching is present only for pitchers",
					"parameters": []map[string]interface{}{
						queryParam("name", "Player name", true, map[string]interface{}{"type": "string"}),
						queryParam("school", "School the player is listed under", true, map[string]interface{}{"type": "string"}),
						formatParam,
					},
					"responses": withErrors(map[string]interface{}{
						"description": "Successful response",
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"player_id": map[string]string{"type": "integer"},
										"player":    map[string]string{"type": "string"},
										"school":    map[string]string{"type": "string"},
										"batting":   displayTableSchema,
										"pitching":  displayTableSchema,
									},
								},
							},
						},
					}),
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check that the API and its store are reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "API is healthy"},
						"503": map[string]interface{}{"description": "Store unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	h.sendJSON(w, r, spec, http.StatusOK)
}
