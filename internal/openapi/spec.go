package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// GenerateSpec builds the OpenAPI 3.1 document for the HTTP surface. The
// surface is fixed, so the document is assembled rather than reflected.
func GenerateSpec(baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Sprout API",
			Description: "Account and transport endpoints for the Sprout plant-care server. Plant operations themselves are exposed as MCP tools over the /sse stream or stdio.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "opaque",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"bearerAuth": {}},
	}

	doc.Paths = openapi3.NewPaths()

	doc.Components.Schemas["ErrorResponse"] = errorResponseSchema()
	doc.Components.Schemas["User"] = userSchema()
	doc.Components.Schemas["GeneratedKey"] = generatedKeySchema()
	doc.Components.Schemas["Account"] = accountSchema()

	addAccountPaths(doc)
	addSystemPaths(doc)
	addStreamPaths(doc)

	return doc
}

func addAccountPaths(doc *openapi3.T) {
	doc.Paths.Set("/generate-key", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"account"},
			Summary:     "Create an account and API key",
			Description: "Creates a user (or reuses the one matching the optional email) and issues a fresh API key. The plaintext key appears only in this response.",
			OperationID: "generate_key",
			Security:    noSecurity(),
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Description: "Optional account details",
					Required:    false,
					Content: openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{
						Value: &openapi3.Schema{
							Type: &openapi3.Types{"object"},
							Properties: openapi3.Schemas{
								"email": stringSchema("Email to associate with the account"),
							},
						},
					}),
				},
			},
			Responses: newResponses(
				"201", "Newly issued key",
				openapi3.NewSchemaRef("#/components/schemas/GeneratedKey", nil),
			),
		},
	})

	doc.Paths.Set("/me", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"account"},
			Summary:     "Current account",
			Description: "Returns the authenticated user and its keys. Key material is reduced to display prefixes.",
			OperationID: "get_me",
			Responses: newResponses(
				"200", "Account details",
				openapi3.NewSchemaRef("#/components/schemas/Account", nil),
			),
		},
	})

	doc.Paths.Set("/add-email", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"account"},
			Summary:     "Attach an email to the account",
			Description: "Sets the account email once. Fails when an email is already set or taken by another account.",
			OperationID: "add_email",
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content: openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{
						Value: &openapi3.Schema{
							Type:     &openapi3.Types{"object"},
							Required: []string{"email"},
							Properties: openapi3.Schemas{
								"email": stringSchema("Email to attach"),
							},
						},
					}),
				},
			},
			Responses: newResponses(
				"200", "Updated user",
				openapi3.NewSchemaRef("#/components/schemas/User", nil),
			),
		},
	})
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Health check",
			Description: "Reports process and storage health.",
			OperationID: "health",
			Security:    noSecurity(),
			Responses: newResponses(
				"200", "Service healthy",
				&openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"status":  stringSchema("Overall status"),
							"version": stringSchema("Server version"),
						},
					},
				},
			),
		},
	})

	doc.Paths.Set("/openapi.json", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "This document",
			OperationID: "openapi",
			Security:    noSecurity(),
			Responses: newResponses(
				"200", "OpenAPI document",
				&openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"object"}},
				},
			),
		},
	})
}

func addStreamPaths(doc *openapi3.T) {
	streamDesc := "Server-sent event stream"
	doc.Paths.Set("/sse", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"mcp"},
			Summary:     "Open the MCP event stream",
			Description: "Opens a server-sent event stream. The first event announces the session's /message endpoint; tool responses follow as message events. A newer stream for the same key supersedes this one.",
			OperationID: "open_stream",
			Responses: func() *openapi3.Responses {
				responses := openapi3.NewResponses()
				responses.Set("200", &openapi3.ResponseRef{
					Value: &openapi3.Response{
						Description: &streamDesc,
						Content: openapi3.Content{
							"text/event-stream": &openapi3.MediaType{
								Schema: &openapi3.SchemaRef{
									Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
								},
							},
						},
					},
				})
				return responses
			}(),
		},
	})

	doc.Paths.Set("/message", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"mcp"},
			Summary:     "Submit a JSON-RPC message",
			Description: "Accepts one MCP JSON-RPC message for an open session, addressed by sessionId query parameter or by API key. The response is delivered on the event stream.",
			OperationID: "post_message",
			Parameters: openapi3.Parameters{
				{
					Value: &openapi3.Parameter{
						Name:        "sessionId",
						In:          "query",
						Description: "Session id announced on the event stream",
						Schema: &openapi3.SchemaRef{
							Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
						},
					},
				},
			},
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content: openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"object"}},
					}),
				},
			},
			Responses: newResponses(
				"202", "Message accepted",
				&openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"object"}},
				},
			),
		},
	})
}

func errorResponseSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						},
					},
				},
			},
		},
	}
}

func userSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":        stringSchema("User id"),
				"email":     stringSchema("Account email, if set"),
				"createdAt": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
			},
		},
	}
}

func generatedKeySchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"userId":    stringSchema("User id the key belongs to"),
				"email":     stringSchema("Account email, if supplied"),
				"apiKey":    stringSchema("Plaintext API key. Store it now; it is never shown again."),
				"keyPrefix": stringSchema("Display prefix for identifying the key later"),
			},
		},
	}
}

func accountSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":        stringSchema("User id"),
				"email":     stringSchema("Account email, if set"),
				"createdAt": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
				"keys": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"array"},
						Items: &openapi3.SchemaRef{
							Value: &openapi3.Schema{
								Type: &openapi3.Types{"object"},
								Properties: openapi3.Schemas{
									"keyPrefix": stringSchema("Display prefix"),
									"isActive":  &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
									"createdAt": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
									"lastUsed":  &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
								},
							},
						},
					},
				},
			},
		},
	}
}

func stringSchema(description string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:        &openapi3.Types{"string"},
			Description: description,
		},
	}
}

// noSecurity marks an operation as reachable without credentials.
func noSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{}}
}

func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)

	badReqDesc := "Bad request"
	responses.Set("400", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &badReqDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	unauthDesc := "Unauthorized"
	responses.Set("401", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &unauthDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	notFoundDesc := "Not found"
	responses.Set("404", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &notFoundDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	serverErrDesc := "Internal server error"
	responses.Set("500", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &serverErrDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	return responses
}
