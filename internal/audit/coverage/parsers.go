package coverage

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// report is one coverage artifact normalized to line counts and a
// percentage.
type report struct {
	linesTotal   int
	linesCovered int
	percentage   float64
}

// parseReport dispatches on file name to the matching format parser.
func parseReport(name, content string) (*report, error) {
	switch {
	case strings.HasSuffix(name, ".info"):
		return parseLCOV(content)
	case strings.HasSuffix(name, ".xml"):
		return parseCobertura(content)
	case strings.HasSuffix(name, ".json"):
		return parseIstanbul(name, content)
	}
	return nil, fmt.Errorf("unrecognized coverage format: %s", name)
}

// parseLCOV sums the LF (lines found) and LH (lines hit) records of an
// lcov trace file.
func parseLCOV(content string) (*report, error) {
	r := &report{}
	sc := bufio.NewScanner(strings.NewReader(content))
	seen := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "LF:"):
			n, err := strconv.Atoi(line[3:])
			if err != nil {
				return nil, fmt.Errorf("lcov: bad LF record %q", line)
			}
			r.linesTotal += n
			seen = true
		case strings.HasPrefix(line, "LH:"):
			n, err := strconv.Atoi(line[3:])
			if err != nil {
				return nil, fmt.Errorf("lcov: bad LH record %q", line)
			}
			r.linesCovered += n
		}
	}
	if !seen {
		return nil, fmt.Errorf("lcov: no LF records found")
	}
	r.percentage = percent(r.linesCovered, r.linesTotal)
	return r, nil
}

// coberturaDoc is the subset of the Cobertura XML root element we read.
type coberturaDoc struct {
	XMLName      xml.Name `xml:"coverage"`
	LineRate     float64  `xml:"line-rate,attr"`
	LinesValid   int      `xml:"lines-valid,attr"`
	LinesCovered int      `xml:"lines-covered,attr"`
}

func parseCobertura(content string) (*report, error) {
	var doc coberturaDoc
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("cobertura: %w", err)
	}
	r := &report{
		linesTotal:   doc.LinesValid,
		linesCovered: doc.LinesCovered,
		percentage:   doc.LineRate * 100,
	}
	if r.percentage == 0 && r.linesTotal > 0 {
		r.percentage = percent(r.linesCovered, r.linesTotal)
	}
	return r, nil
}

// istanbulSummary is the "total" block of a coverage-summary.json.
type istanbulSummary struct {
	Total struct {
		Lines struct {
			Total   int     `json:"total"`
			Covered int     `json:"covered"`
			Pct     float64 `json:"pct"`
		} `json:"lines"`
	} `json:"total"`
}

// parseIstanbul handles both the summary document and the per-file final
// document, which carries raw statement hit counts instead of totals.
func parseIstanbul(name, content string) (*report, error) {
	if strings.HasSuffix(name, "coverage-final.json") {
		return parseIstanbulFinal(content)
	}
	var doc istanbulSummary
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("istanbul summary: %w", err)
	}
	lines := doc.Total.Lines
	if lines.Total == 0 && lines.Pct == 0 {
		return nil, fmt.Errorf("istanbul summary: no total block")
	}
	r := &report{linesTotal: lines.Total, linesCovered: lines.Covered, percentage: lines.Pct}
	if r.percentage == 0 && r.linesTotal > 0 {
		r.percentage = percent(r.linesCovered, r.linesTotal)
	}
	return r, nil
}

func parseIstanbulFinal(content string) (*report, error) {
	var files map[string]struct {
		S map[string]int `json:"s"`
	}
	if err := json.Unmarshal([]byte(content), &files); err != nil {
		return nil, fmt.Errorf("istanbul final: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("istanbul final: no file entries")
	}
	r := &report{}
	for _, f := range files {
		for _, hits := range f.S {
			r.linesTotal++
			if hits > 0 {
				r.linesCovered++
			}
		}
	}
	if r.linesTotal == 0 {
		return nil, fmt.Errorf("istanbul final: no statement records")
	}
	r.percentage = percent(r.linesCovered, r.linesTotal)
	return r, nil
}

func percent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(covered) / float64(total)
}
