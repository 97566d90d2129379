package cache

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
)

const reply = `{"StoreName":"Market","ReceiptDate":"2024-05-01","LineItems":[{"ItemName":"Milk","Quantity":1,"UnitPrice":3,"TotalLineAmount":3,"Category":"Dairy"}]}`

// mockAnalyzer is a mock implementation of llm.Analyzer
type mockAnalyzer struct {
	calls int
	reply string
	err   error
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ []byte, _ string) (*llm.Analysis, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return llm.ParseAnalysis(m.reply, nil)
}

var _ = Describe("Analyzer", func() {
	var (
		store *BoltStore
		next  *mockAnalyzer
		a     *Analyzer
	)

	BeforeEach(func() {
		var err error
		store, err = OpenBoltStore(filepath.Join(GinkgoT().TempDir(), "cache.db"))
		Expect(err).NotTo(HaveOccurred())
		next = &mockAnalyzer{reply: reply}
		a = NewAnalyzer(next, store, "gemini-test", nil)
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("should call the service once for repeated images", func() {
		first, err := a.Analyze(context.Background(), []byte("same"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		second, err := a.Analyze(context.Background(), []byte("same"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())

		Expect(next.calls).To(Equal(1))
		Expect(second.StoreName).To(Equal(first.StoreName))
		Expect(second.LineItems).To(HaveLen(1))
	})

	It("should call the service for different images", func() {
		_, err := a.Analyze(context.Background(), []byte("one"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		_, err = a.Analyze(context.Background(), []byte("two"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.calls).To(Equal(2))
	})

	It("should not cache failures", func() {
		next.err = common.ExternalServiceError("status 503 after 4 attempts", nil)
		_, err := a.Analyze(context.Background(), []byte("img"), "image/jpeg")
		Expect(common.KindOf(err)).To(Equal(common.KindExternalService))

		next.err = nil
		_, err = a.Analyze(context.Background(), []byte("img"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.calls).To(Equal(2))
	})

	It("should fall through when a stored reply no longer parses", func() {
		key := Key("gemini-test", []byte("img"))
		Expect(store.Put(key, Record{Model: "gemini-test", Reply: "not json", StoredAt: time.Now()})).To(Succeed())

		res, err := a.Analyze(context.Background(), []byte("img"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StoreName).To(Equal("Market"))
		Expect(next.calls).To(Equal(1))

		entry, ok, err := store.Get(key)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(entry.Reply).To(Equal(reply))
	})
})

var _ = Describe("Key", func() {
	It("should depend on both model and image", func() {
		Expect(Key("m1", []byte("x"))).NotTo(Equal(Key("m2", []byte("x"))))
		Expect(Key("m1", []byte("x"))).NotTo(Equal(Key("m1", []byte("y"))))
		Expect(Key("m1", []byte("x"))).To(Equal(Key("m1", []byte("x"))))
	})
})
