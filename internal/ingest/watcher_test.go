package ingest

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StartWatcher", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		root   string
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
		root = GinkgoT().TempDir()
	})

	It("should require at least one root", func() {
		_, _, err := StartWatcher(ctx, WatchConfig{}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should emit existing images on the initial scan", func() {
		touch(filepath.Join(root, "old.jpg"), 1)
		touch(filepath.Join(root, "old.txt"), 1)

		events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, nil)
		Expect(err).NotTo(HaveOccurred())
		Eventually(events).Should(Receive(Equal(filepath.Join(root, "old.jpg"))))
	})

	It("should emit new images once after the debounce", func() {
		events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: 50 * time.Millisecond}, nil)
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(root, "new.jpg")
		touch(path, 1)
		touch(filepath.Join(root, "ignored.txt"), 1)

		Eventually(events, 2*time.Second).Should(Receive(Equal(path)))
		Consistently(events, 200*time.Millisecond).ShouldNot(Receive())
	})

	It("should close the channel when the context ends", func() {
		events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}}, nil)
		Expect(err).NotTo(HaveOccurred())

		cancel()
		Eventually(events).Should(BeClosed())
	})
})
