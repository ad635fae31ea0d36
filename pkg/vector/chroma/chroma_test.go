package chroma_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/vector"
	"github.com/papercomputeco/engram/pkg/vector/chroma"
)

// newChromaStub serves the collection-lookup endpoint plus any extra
// handlers a spec registers under the collection path.
func newChromaStub(extra func(w http.ResponseWriter, r *http.Request) bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if extra != nil && extra(w, r) {
			return
		}

		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/collections/engram") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"id":   "col-1",
				"name": "engram",
			})
			return
		}

		http.NotFound(w, r)
	}))
}

var _ = Describe("ChromaDriver", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewChromaDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewChromaDriver(chroma.Config{URL: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should bind to an existing collection", func() {
			server := newChromaStub(nil)
			defer server.Close()

			driver, err := chroma.NewChromaDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(driver.Close()).To(Succeed())
		})

		It("should create the collection when it does not exist", func() {
			var created bool
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodGet:
					http.NotFound(w, r)
				case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/collections"):
					created = true
					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode(map[string]string{
						"id":   "col-new",
						"name": "memories",
					})
				default:
					http.NotFound(w, r)
				}
			}))
			defer server.Close()

			driver, err := chroma.NewChromaDriver(chroma.Config{
				URL:            server.URL,
				CollectionName: "memories",
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(created).To(BeTrue())
		})

		It("should return an error when the server rejects collection creation", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewChromaDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(vector.ErrCollection))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*chroma.ChromaDriver)(nil)
		})
	})

	Describe("Search", func() {
		It("should convert distances to descending scores and apply the threshold", func() {
			server := newChromaStub(func(w http.ResponseWriter, r *http.Request) bool {
				if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/query") {
					return false
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"ids":       [][]string{{"rec-1", "rec-2"}},
					"distances": [][]float32{{0.0, 4.0}},
					"documents": [][]string{{"prefers tabs", "allergic to peanuts"}},
					"metadatas": [][]map[string]any{{
						{"category": "preference"},
						{"category": "fact"},
					}},
				})
				return true
			})
			defer server.Close()

			driver, err := chroma.NewChromaDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())

			hits, err := driver.Search(context.Background(), "indentation", 5, 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("rec-1"))
			Expect(hits[0].Text).To(Equal("prefers tabs"))
			Expect(hits[0].Score).To(BeNumerically("~", 1.0, 0.001))
			Expect(hits[0].Metadata).To(HaveKeyWithValue("category", "preference"))
		})

		It("should return no hits for an empty result set", func() {
			server := newChromaStub(func(w http.ResponseWriter, r *http.Request) bool {
				if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/query") {
					return false
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"ids": [][]string{},
				})
				return true
			})
			defer server.Close()

			driver, err := chroma.NewChromaDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())

			hits, err := driver.Search(context.Background(), "anything", 5, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})
	})
})
