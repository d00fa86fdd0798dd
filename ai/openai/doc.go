// Package openai provides an ai.Embedder backed by any OpenAI-compatible
// embedding API, including Ollama, LocalAI and vLLM.
package openai
