package sqlitevec_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	testutils "github.com/papercomputeco/engram/pkg/utils/test"
	"github.com/papercomputeco/engram/pkg/vector"
	"github.com/papercomputeco/engram/pkg/vector/sqlitevec"
)

var _ = Describe("SQLiteVecDriver", func() {
	var (
		logger   *zap.Logger
		embedder *testutils.MockEmbedder
	)

	BeforeEach(func() {
		logger = zap.NewNop()
		embedder = testutils.NewMockEmbedder()
	})

	Describe("NewSQLiteVecDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ""}, embedder, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should error when dimensions are not specified", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath: ":memory:",
			}, embedder, logger)
			Expect(err).To(HaveOccurred())
		})

		It("should error when no embedder is provided", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, nil, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("embedder is required"))
		})

		It("should create a driver with an in-memory database", func() {
			driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, embedder, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(driver.Close()).To(Succeed())
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*sqlitevec.SQLiteVecDriver)(nil)
		})
	})

	Describe("Store", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, embedder, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should store a record and find it by its own text", func() {
			err := driver.Store(context.Background(), "rec-1", "user prefers dark mode", map[string]any{
				"category": "preference",
			})
			Expect(err).NotTo(HaveOccurred())

			hits, err := driver.Search(context.Background(), "user prefers dark mode", 5, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("rec-1"))
			Expect(hits[0].Text).To(Equal("user prefers dark mode"))
			Expect(hits[0].Score).To(BeNumerically("~", 1.0, 0.001))
			Expect(hits[0].Metadata).To(HaveKeyWithValue("category", "preference"))
		})

		It("should overwrite an existing record at the same id", func() {
			embedder.Embeddings["old text"] = []float32{1, 0, 0}
			embedder.Embeddings["new text"] = []float32{0, 1, 0}

			err := driver.Store(context.Background(), "rec-1", "old text", nil)
			Expect(err).NotTo(HaveOccurred())

			err = driver.Store(context.Background(), "rec-1", "new text", map[string]any{"updated": true})
			Expect(err).NotTo(HaveOccurred())

			hits, err := driver.Search(context.Background(), "new text", 5, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("rec-1"))
			Expect(hits[0].Text).To(Equal("new text"))
			Expect(hits[0].Metadata).To(HaveKeyWithValue("updated", true))
		})

		It("should propagate embedder failures", func() {
			embedder.FailOn = "poison"
			err := driver.Store(context.Background(), "rec-1", "poison", nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, embedder, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should replace text and metadata while preserving the id", func() {
			embedder.Embeddings["works at acme"] = []float32{1, 0, 0}
			embedder.Embeddings["works at initech"] = []float32{0, 1, 0}

			err := driver.Store(context.Background(), "rec-1", "works at acme", map[string]any{"category": "fact"})
			Expect(err).NotTo(HaveOccurred())

			err = driver.Update(context.Background(), "rec-1", "works at initech", map[string]any{"category": "fact"})
			Expect(err).NotTo(HaveOccurred())

			hits, err := driver.Search(context.Background(), "works at initech", 5, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("rec-1"))
			Expect(hits[0].Text).To(Equal("works at initech"))

			// The old embedding is gone, so the old text no longer matches closely
			hits, err = driver.Search(context.Background(), "works at acme", 5, 0.9)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})
	})

	Describe("Search", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, embedder, logger)
			Expect(err).NotTo(HaveOccurred())

			embedder.Embeddings["likes go"] = []float32{1, 0, 0}
			embedder.Embeddings["likes rust"] = []float32{0, 1, 0}
			embedder.Embeddings["likes zig"] = []float32{0, 0, 1}
			embedder.Embeddings["what language does the user like"] = []float32{0.9, 0.1, 0}

			for _, text := range []string{"likes go", "likes rust", "likes zig"} {
				Expect(driver.Store(context.Background(), "id-"+text, text, nil)).To(Succeed())
			}
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return the closest record first", func() {
			hits, err := driver.Search(context.Background(), "what language does the user like", 3, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))
			Expect(hits[0].ID).To(Equal("id-likes go"))
		})

		It("should return scores in descending order", func() {
			hits, err := driver.Search(context.Background(), "what language does the user like", 3, 0)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(hits); i++ {
				Expect(hits[i-1].Score).To(BeNumerically(">=", hits[i].Score))
			}
		})

		It("should respect the topK limit", func() {
			hits, err := driver.Search(context.Background(), "what language does the user like", 2, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(2))
		})

		It("should default topK to 10 when zero or negative", func() {
			hits, err := driver.Search(context.Background(), "what language does the user like", 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))
		})

		It("should drop hits below the threshold", func() {
			hits, err := driver.Search(context.Background(), "what language does the user like", 10, 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("id-likes go"))
		})

		It("should propagate embedder failures on the query", func() {
			embedder.FailOn = "broken query"
			_, err := driver.Search(context.Background(), "broken query", 5, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, embedder, logger)
			Expect(err).NotTo(HaveOccurred())

			embedder.Embeddings["first"] = []float32{1, 0, 0}
			embedder.Embeddings["second"] = []float32{0, 1, 0}
			Expect(driver.Store(context.Background(), "rec-1", "first", nil)).To(Succeed())
			Expect(driver.Store(context.Background(), "rec-2", "second", nil)).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should remove a record from search results", func() {
			err := driver.Delete(context.Background(), "rec-1")
			Expect(err).NotTo(HaveOccurred())

			hits, err := driver.Search(context.Background(), "first", 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("rec-2"))
		})

		It("should not error when deleting a missing id", func() {
			err := driver.Delete(context.Background(), "nonexistent")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Close", func() {
		It("should close the database connection", func() {
			driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 3,
			}, embedder, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Close()).To(Succeed())
		})
	})
})
