// Package openai implements the OpenAI provider adapter.
//
// This package provides an implementation of the providers.Provider
// interface for OpenAI's chat completions API. Generation requests are
// transformed into a single-turn chat completion (optional system prompt
// plus user prompt) and the first choice is returned as the result.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:    "openai",
//	    Type:    "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	}
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
package openai
