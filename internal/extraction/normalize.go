package extraction

import (
	"regexp"
	"sort"
	"strings"
)

// skillAliases maps common skill name variants to a canonical lower-case name.
var skillAliases = map[string]string{
	"golang":                      "go",
	"go lang":                     "go",
	"k8s":                         "kubernetes",
	"postgres":                    "postgresql",
	"psql":                        "postgresql",
	"js":                          "javascript",
	"ts":                          "typescript",
	"react.js":                    "react",
	"reactjs":                     "react",
	"vue.js":                      "vue",
	"vuejs":                       "vue",
	"nodejs":                      "node.js",
	"amazon web services":         "aws",
	"google cloud":                "gcp",
	"google cloud platform":       "gcp",
	"microsoft azure":             "azure",
	"c sharp":                     "c#",
	"csharp":                      "c#",
	"cpp":                         "c++",
	"cicd":                        "ci/cd",
	"continuous integration":      "ci/cd",
	"machine-learning":            "machine learning",
	"ml":                          "machine learning",
	"restful":                     "rest",
	"restful apis":                "rest",
	"rest apis":                   "rest",
	"rest api":                    "rest",
	"mongo":                       "mongodb",
	"elastic search":              "elasticsearch",
	"gitlab-ci":                   "gitlab ci",
	"microservice":                "microservices",
	"micro-services":              "microservices",
	"distributed system":          "distributed systems",
	"unit tests":                  "unit testing",
	"event driven architecture":   "event-driven architecture",
	"large language models":       "llm",
	"llms":                        "llm",
	"natural language processing": "nlp",
}

// knownSkills is the vocabulary scanned for inside free-form sentences.
var knownSkills = []string{
	"go", "python", "java", "javascript", "typescript", "ruby", "rust", "c++", "c#", "scala", "kotlin",
	"swift", "php", "elixir", "haskell", "sql", "bash",
	"react", "vue", "angular", "node.js", "django", "flask", "fastapi", "spring boot", "rails", "next.js", "graphql",
	"grpc", "rest", "kafka", "rabbitmq", "redis", "postgresql", "mysql", "mongodb", "elasticsearch", "dynamodb",
	"cassandra", "snowflake", "bigquery", "spark", "airflow", "dbt", "hadoop",
	"aws", "gcp", "azure", "docker", "kubernetes", "terraform", "ansible", "helm", "linux", "ci/cd",
	"github actions", "gitlab ci", "jenkins", "prometheus", "grafana", "datadog", "opentelemetry",
	"microservices", "distributed systems", "event-driven architecture", "machine learning", "nlp", "llm",
	"pytorch", "tensorflow", "pandas", "unit testing", "tdd", "agile", "scrum", "git", "oauth",
}

// caseSensitiveTerms are ordinary English words unless written this way.
var caseSensitiveTerms = map[string]string{
	"go":   "Go",
	"rest": "REST",
}

var (
	edgePunct     = regexp.MustCompile(`^[\s.,;:()\[\]"'*•·–—-]+|[\s.,;:()\[\]"'*•·–—-]+$`)
	innerSpace    = regexp.MustCompile(`\s+`)
	knownPatterns = compileKnownSkills()
)

// NormalizeSkill returns the canonical, case-normalized form of a skill name.
func NormalizeSkill(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = innerSpace.ReplaceAllString(s, " ")
	s = edgePunct.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}
	if canonical, ok := skillAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeSkills normalizes and de-duplicates skills, keeping first-seen order.
func NormalizeSkills(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		s := NormalizeSkill(n)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// termPattern matches term as a whole token. Terms may contain symbols such as
// "c++" or "node.js", so word boundaries are spelled out.
func termPattern(term string) *regexp.Regexp {
	if exact, ok := caseSensitiveTerms[term]; ok {
		return regexp.MustCompile(`(^|[^\p{L}\p{N}+#])` + regexp.QuoteMeta(exact) + `($|[^\p{L}\p{N}+#-])`)
	}
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}+#])` + regexp.QuoteMeta(term) + `($|[^\p{L}\p{N}+#])`)
}

type skillPattern struct {
	skill string
	re    *regexp.Regexp
}

func compileKnownSkills() []skillPattern {
	terms := make(map[string]string)
	for _, s := range knownSkills {
		terms[s] = s
	}
	for alias, canonical := range skillAliases {
		terms[alias] = canonical
	}

	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	// Longer terms first so "google cloud platform" wins over "google cloud".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	patterns := make([]skillPattern, 0, len(keys))
	for _, k := range keys {
		patterns = append(patterns, skillPattern{skill: terms[k], re: termPattern(k)})
	}
	return patterns
}

// ScanKnownSkills finds vocabulary skills mentioned anywhere in text, in order of
// first appearance.
func ScanKnownSkills(text string) []string {
	type hit struct {
		skill string
		pos   int
	}
	var hits []hit
	seen := make(map[string]bool)
	for _, p := range knownPatterns {
		if seen[p.skill] {
			continue
		}
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		seen[p.skill] = true
		hits = append(hits, hit{skill: p.skill, pos: loc[0]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.skill)
	}
	return out
}

// ContainsSkill reports whether text mentions the skill or one of its aliases
// as a whole term.
func ContainsSkill(text, skill string) bool {
	skill = NormalizeSkill(skill)
	if skill == "" {
		return false
	}
	for _, term := range skillTerms(skill) {
		if termPattern(term).MatchString(text) {
			return true
		}
	}
	return false
}

func skillTerms(skill string) []string {
	terms := []string{skill}
	for alias, canonical := range skillAliases {
		if canonical == skill {
			terms = append(terms, alias)
		}
	}
	sort.Strings(terms[1:])
	return terms
}
