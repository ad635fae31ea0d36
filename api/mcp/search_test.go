package mcp

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/memory"
	"github.com/papercomputeco/engram/pkg/vector"
)

var _ = Describe("Search tool", func() {
	var (
		server *Server
		mem    *fakeMemory
	)

	BeforeEach(func() {
		mem = &fakeMemory{}

		var err error
		server, err = NewServer(Config{
			Memory: mem,
			Logger: zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns ranked results with record fields", func() {
		mem.searchHits = []vector.Hit{
			{
				ID:    "m1",
				Text:  "prefers tabs over spaces",
				Score: 0.91,
				Metadata: map[string]any{
					memory.MetaCategory: "preference",
				},
			},
			{
				ID:    "m2",
				Text:  "main project is a Go service",
				Score: 0.62,
			},
		}

		result, output, err := server.handleSearch(context.Background(), nil, SearchInput{
			Query: "indentation",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())
		Expect(output.Count).To(Equal(2))
		Expect(output.Results[0].ID).To(Equal("m1"))
		Expect(output.Results[0].Category).To(Equal("preference"))
		Expect(output.Results[0].Score).To(Equal(float32(0.91)))
		Expect(output.Results[1].Category).To(Equal("general"))
	})

	It("returns an empty result set for no matches", func() {
		result, output, err := server.handleSearch(context.Background(), nil, SearchInput{
			Query: "nothing stored about this",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())
		Expect(output.Count).To(Equal(0))
		Expect(output.Results).To(BeEmpty())
	})

	It("requires a query", func() {
		result, _, err := server.handleSearch(context.Background(), nil, SearchInput{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
	})

	It("surfaces backend failures as tool errors", func() {
		mem.searchErr = fmt.Errorf("store down")

		result, _, err := server.handleSearch(context.Background(), nil, SearchInput{
			Query: "anything",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
	})
})
