// Package retrieve provides documentation retrievers for bughound: a Tavily
// web search client for public API documentation, a SQLite-backed corpus of
// local documentation pages, and an embedding-based retriever that ranks the
// corpus by cosine similarity using Gemini embeddings.
package retrieve
