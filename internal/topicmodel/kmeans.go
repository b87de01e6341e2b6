package topicmodel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/topic-modeler/internal/embeddings"
	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/table"
)

const (
	maxIterations = 100
	wordsPerTopic = 10
	barsPerTopic  = 5
	barChartLimit = 8
)

// KMeans clusters comment embeddings with spherical k-means. Seeding is
// deterministic (farthest point from the chosen centroids), so the same input
// always yields the same topics. Topic 0 is the largest cluster.
type KMeans struct {
	embedder embeddings.Embedder
	nrTopics int

	mu        sync.RWMutex
	fitted    bool
	sizes     []int
	centroids [][]float32
	words     [][]WordScore
}

// NewKMeans creates an unfitted model asking for nrTopics topics.
func NewKMeans(embedder embeddings.Embedder, nrTopics int) (*KMeans, error) {
	if nrTopics < 1 {
		return nil, fmt.Errorf("number of topics must be at least 1, got %d", nrTopics)
	}
	return &KMeans{embedder: embedder, nrTopics: nrTopics}, nil
}

// NewFactory returns a Factory building KMeans models on embedder.
func NewFactory(embedder embeddings.Embedder) Factory {
	return func(nrTopics int) (Model, error) {
		return NewKMeans(embedder, nrTopics)
	}
}

// Fit implements Model. The topic count is capped at the number of distinct comments.
func (m *KMeans) Fit(ctx context.Context, docs *table.Table) (*table.Table, error) {
	comments, err := docs.Column(table.CommentColumn)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, fmt.Errorf("no comments to model")
	}

	logger.Printf("KMeans.Fit: embedding %d comments", len(comments))
	vectors, err := m.embedder.EmbedBatch(ctx, comments)
	if err != nil {
		return nil, fmt.Errorf("failed to embed comments: %w", err)
	}
	for i := range vectors {
		normalize(vectors[i])
	}

	k := min(m.nrTopics, distinctCount(comments))
	labels, centroids, err := cluster(ctx, vectors, k)
	if err != nil {
		return nil, err
	}
	labels, centroids, sizes := orderBySize(labels, centroids)
	k = len(sizes)

	values := make([]string, len(labels))
	for i, l := range labels {
		values[i] = strconv.Itoa(l)
	}
	labeled, err := docs.WithColumn(table.TopicsColumn, values)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.fitted = true
	m.sizes = sizes
	m.centroids = centroids
	m.words = topicWords(comments, labels, k, wordsPerTopic)
	m.mu.Unlock()

	logger.Printf("KMeans.Fit: %d comments in %d topics (requested %d)", len(comments), k, m.nrTopics)
	return labeled, nil
}

// Details implements Model.
func (m *KMeans) Details() (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.fitted {
		return nil, ErrNotFitted
	}

	out := table.New("Topic", "Count", "Name", "Representation")
	for topic, size := range m.sizes {
		words := make([]string, len(m.words[topic]))
		for i, w := range m.words[topic] {
			words[i] = w.Word
		}
		out.Append(
			strconv.Itoa(topic),
			strconv.Itoa(size),
			topicName(topic, words),
			strings.Join(words, ", "),
		)
	}
	return out, nil
}

// BarChart implements Model.
func (m *KMeans) BarChart() (*Figure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.fitted {
		return nil, ErrNotFitted
	}

	fig := &Figure{Kind: KindBarChart, Title: "Topic Word Scores"}
	for topic := 0; topic < len(m.sizes) && topic < barChartLimit; topic++ {
		words := m.words[topic]
		if len(words) > barsPerTopic {
			words = words[:barsPerTopic]
		}
		fig.Bars = append(fig.Bars, BarPanel{Topic: topic, Words: append([]WordScore(nil), words...)})
	}
	return fig, nil
}

// Hierarchy implements Model. Topics are merged bottom-up, always joining the
// two groups whose size-weighted centroids are closest in cosine distance.
func (m *KMeans) Hierarchy() (*Figure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.fitted {
		return nil, ErrNotFitted
	}

	type group struct {
		topics   []int
		centroid []float32
		size     int
	}

	groups := make([]group, len(m.centroids))
	fig := &Figure{Kind: KindHierarchy, Title: "Hierarchical Clustering"}
	for topic, c := range m.centroids {
		groups[topic] = group{topics: []int{topic}, centroid: append([]float32(nil), c...), size: m.sizes[topic]}
		words := make([]string, 0, 3)
		for i := 0; i < len(m.words[topic]) && i < 3; i++ {
			words = append(words, m.words[topic][i].Word)
		}
		fig.Leaves = append(fig.Leaves, topicName(topic, words))
	}

	for len(groups) > 1 {
		bestA, bestB, bestDist := 0, 1, 2.0
		for a := 0; a < len(groups); a++ {
			for b := a + 1; b < len(groups); b++ {
				if d := 1 - dot(groups[a].centroid, groups[b].centroid); d < bestDist {
					bestA, bestB, bestDist = a, b, d
				}
			}
		}

		ga, gb := groups[bestA], groups[bestB]
		merged := group{
			topics: append(append([]int(nil), ga.topics...), gb.topics...),
			size:   ga.size + gb.size,
		}
		merged.centroid = make([]float32, len(ga.centroid))
		for i := range merged.centroid {
			merged.centroid[i] = (ga.centroid[i]*float32(ga.size) + gb.centroid[i]*float32(gb.size)) / float32(merged.size)
		}
		normalize(merged.centroid)
		sort.Ints(merged.topics)

		fig.Merges = append(fig.Merges, Merge{Left: ga.topics, Right: gb.topics, Distance: bestDist})

		groups[bestA] = merged
		groups = append(groups[:bestB], groups[bestB+1:]...)
	}
	return fig, nil
}

func topicName(topic int, words []string) string {
	parts := []string{strconv.Itoa(topic)}
	for i := 0; i < len(words) && i < 4; i++ {
		parts = append(parts, words[i])
	}
	return strings.Join(parts, "_")
}

// cluster runs spherical k-means on unit vectors and returns labels and centroids.
func cluster(ctx context.Context, vectors [][]float32, k int) ([]int, [][]float32, error) {
	centroids := seed(vectors, k)
	labels := make([]int, len(vectors))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		changed := false
		for i, v := range vectors {
			best, bestSim := 0, -2.0
			for c, centroid := range centroids {
				if s := dot(v, centroid); s > bestSim {
					best, bestSim = c, s
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		dim := len(centroids[0])
		sums := make([][]float32, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float32, dim)
		}
		for i, v := range vectors {
			counts[labels[i]]++
			for d := range v {
				sums[labels[i]][d] += v[d]
			}
		}
		for c := range centroids {
			// an emptied cluster keeps its previous centroid
			if counts[c] == 0 {
				continue
			}
			normalize(sums[c])
			centroids[c] = sums[c]
		}
	}
	return labels, centroids, nil
}

// seed picks the first vector, then repeatedly the vector least similar to
// every centroid chosen so far.
func seed(vectors [][]float32, k int) [][]float32 {
	centroids := [][]float32{append([]float32(nil), vectors[0]...)}
	closest := make([]float64, len(vectors))
	for i, v := range vectors {
		closest[i] = dot(v, centroids[0])
	}

	for len(centroids) < k {
		pick, lowest := 0, 2.0
		for i, s := range closest {
			if s < lowest {
				pick, lowest = i, s
			}
		}
		c := append([]float32(nil), vectors[pick]...)
		centroids = append(centroids, c)
		for i, v := range vectors {
			if s := dot(v, c); s > closest[i] {
				closest[i] = s
			}
		}
	}
	return centroids
}

// orderBySize renumbers topics so that topic 0 is the largest. Ties keep
// their original order. Empty clusters are dropped.
func orderBySize(labels []int, centroids [][]float32) ([]int, [][]float32, []int) {
	counts := make([]int, len(centroids))
	for _, l := range labels {
		counts[l]++
	}

	order := make([]int, 0, len(centroids))
	for c := range centroids {
		if counts[c] > 0 {
			order = append(order, c)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })

	remap := make(map[int]int, len(order))
	newCentroids := make([][]float32, len(order))
	sizes := make([]int, len(order))
	for newID, old := range order {
		remap[old] = newID
		newCentroids[newID] = centroids[old]
		sizes[newID] = counts[old]
	}

	newLabels := make([]int, len(labels))
	for i, l := range labels {
		newLabels[i] = remap[l]
	}
	return newLabels, newCentroids, sizes
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
