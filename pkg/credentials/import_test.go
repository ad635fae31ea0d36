package credentials_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/engram/pkg/credentials"
)

var _ = Describe("ExtractCodexAPIKey", func() {
	It("extracts the OpenAI key from codex auth JSON", func() {
		data := []byte(`{"OPENAI_API_KEY": "sk-from-codex", "tokens": {"access": "x"}}`)
		key, ok := credentials.ExtractCodexAPIKey(data)
		Expect(ok).To(BeTrue())
		Expect(key).To(Equal("sk-from-codex"))
	})

	It("reports false when no key is present", func() {
		key, ok := credentials.ExtractCodexAPIKey([]byte(`{"tokens": {}}`))
		Expect(ok).To(BeFalse())
		Expect(key).To(BeEmpty())
	})

	It("reports false for malformed JSON", func() {
		_, ok := credentials.ExtractCodexAPIKey([]byte("not json"))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ExtractOpenCodeAPIKey", func() {
	It("extracts an api-type key for the provider", func() {
		data := []byte(`{"anthropic": {"type": "api", "key": "sk-from-opencode"}}`)
		key, ok := credentials.ExtractOpenCodeAPIKey(data, "anthropic")
		Expect(ok).To(BeTrue())
		Expect(key).To(Equal("sk-from-opencode"))
	})

	It("ignores oauth entries", func() {
		data := []byte(`{"anthropic": {"type": "oauth", "key": ""}}`)
		_, ok := credentials.ExtractOpenCodeAPIKey(data, "anthropic")
		Expect(ok).To(BeFalse())
	})

	It("reports false for unknown providers", func() {
		data := []byte(`{"anthropic": {"type": "api", "key": "sk-x"}}`)
		_, ok := credentials.ExtractOpenCodeAPIKey(data, "openai")
		Expect(ok).To(BeFalse())
	})

	It("reports false for malformed JSON", func() {
		_, ok := credentials.ExtractOpenCodeAPIKey([]byte("["), "anthropic")
		Expect(ok).To(BeFalse())
	})
})
