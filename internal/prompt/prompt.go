package prompt

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
)

const qaTemplate = `You are an assistant for question-answering tasks. Use the following pieces of retrieved context to answer the question. If you don't know the answer, just say that you don't know. Use three sentences maximum and keep the answer concise.

Context:
{{.context}}

Question: {{.question}}

Answer:`

// QATemplate is the prompt the retrieval chain feeds the model.
var QATemplate = prompts.NewPromptTemplate(qaTemplate, []string{"context", "question"})

// StuffDocuments joins the retrieved page contents the way a stuff-documents
// chain does.
func StuffDocuments(docs []schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.PageContent != "" {
			parts = append(parts, doc.PageContent)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FormatQA renders the full prompt for one question over retrieved documents.
func FormatQA(docs []schema.Document, question string) (string, error) {
	return QATemplate.Format(map[string]any{
		"context":  StuffDocuments(docs),
		"question": question,
	})
}
