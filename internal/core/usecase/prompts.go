package usecase

import "fmt"

const answerSystemPrompt = `You are an assistant that answers questions based on the provided documents.
Answer clearly and concisely. If the information is not in the documents, say so explicitly.
Cite the source documents whenever possible.`

const (
	demoSourceName    = "Sample Document"
	demoSourceContent = "This is sample content demonstrating how answers reference document chunks."

	guidanceAnswer = "Please select at least one document to search for the answer."

	noInfoAnswer = "I could not find relevant information in the documents to answer your question. " +
		"Make sure documents have been uploaded and processed."
)

func demoAnswer(question string) string {
	return fmt.Sprintf(
		"This is a demo answer. Your question was: %q. Configure an API key with available credits to get real answers.",
		question,
	)
}

func quotaAnswer(question string) string {
	return fmt.Sprintf(
		"The language model quota has been exhausted. Your question was: %q. Add credits to your account to restore full answers.",
		question,
	)
}

func buildUserPrompt(context, question string) string {
	return fmt.Sprintf("Document context:\n\n%s\n\nQuestion: %s", context, question)
}
