package visits

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const topPagesLimit = 10

// Stats - сводка по журналам посещений.
type Stats struct {
	TotalVisits    int            `json:"totalVisits"`
	UniqueVisitors int            `json:"uniqueVisitors"`
	DailyBreakdown map[string]int `json:"dailyBreakdown"`
	TopPages       map[string]int `json:"topPages"`
}

// Stats читает все дневные журналы и считает статистику.
// Нечитаемые строки учитываются в общем числе визитов, но не в разбивке по IP и страницам.
func (r *Recorder) Stats() (Stats, error) {
	return ReadStats(r.dir)
}

// ReadStats считает статистику по журналам в каталоге dir.
func ReadStats(dir string) (Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, fmt.Errorf("read logs dir: %w", err)
	}

	stats := Stats{
		DailyBreakdown: make(map[string]int),
		TopPages:       make(map[string]int),
	}
	uniqueIPs := make(map[string]struct{})
	pages := make(map[string]int)

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, visitFilePrefix) {
			continue
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, visitFilePrefix), visitFileSuffix)

		count, err := scanVisits(filepath.Join(dir, name), func(v Visit) {
			uniqueIPs[v.IP] = struct{}{}
			pages[v.Path]++
		})
		if err != nil {
			return Stats{}, err
		}
		stats.TotalVisits += count
		stats.DailyBreakdown[day] = count
	}

	stats.UniqueVisitors = len(uniqueIPs)
	for _, p := range topPages(pages, topPagesLimit) {
		stats.TopPages[p] = pages[p]
	}
	return stats, nil
}

// scanVisits возвращает число непустых строк файла и вызывает fn для каждой разобранной.
func scanVisits(path string, fn func(Visit)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		count++
		var v Visit
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			continue
		}
		fn(v)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", path, err)
	}
	return count, nil
}

// topPages возвращает n самых посещаемых путей. При равенстве - по алфавиту.
func topPages(pages map[string]int, n int) []string {
	paths := make([]string, 0, len(pages))
	for p := range pages {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if pages[paths[i]] != pages[paths[j]] {
			return pages[paths[i]] > pages[paths[j]]
		}
		return paths[i] < paths[j]
	})
	if len(paths) > n {
		paths = paths[:n]
	}
	return paths
}
