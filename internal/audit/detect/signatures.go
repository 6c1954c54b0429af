package detect

// signatures maps category -> framework -> identifying package names.
// Identifiers are matched against declared dependency names: exact match,
// scoped-namespace prefix for "@" identifiers, or substring containment for
// identifiers longer than 3 characters.
var signatures = map[string]map[string][]string{
	"frontend": {
		"react":   {"react", "react-dom"},
		"vue":     {"vue"},
		"angular": {"@angular/core"},
		"svelte":  {"svelte"},
		"next":    {"next"},
	},
	"backend": {
		"express": {"express"},
		"nestjs":  {"@nestjs/core"},
		"fastify": {"fastify"},
		"django":  {"django"},
		"flask":   {"flask"},
		"fastapi": {"fastapi"},
		"rails":   {"rails"},
		"phoenix": {"phoenix"},
		"actix":   {"actix-web"},
		"axum":    {"axum"},
	},
	"web3": {
		"ethers":  {"ethers"},
		"hardhat": {"hardhat"},
		"web3js":  {"web3"},
		"truffle": {"truffle"},
	},
	"ai": {
		"openai":       {"openai"},
		"langchain":    {"langchain"},
		"transformers": {"transformers"},
		"pytorch":      {"torch"},
		"tensorflow":   {"tensorflow"},
	},
	"mobile": {
		"react-native": {"react-native"},
		"expo":         {"expo"},
		"ionic":        {"@ionic/core"},
	},
	"desktop": {
		"electron": {"electron"},
		"tauri":    {"@tauri-apps/api"},
	},
	"css": {
		"tailwind":  {"tailwindcss"},
		"bootstrap": {"bootstrap"},
		"sass":      {"sass"},
	},
	"testing": {
		"jest":   {"jest"},
		"vitest": {"vitest"},
		"mocha":  {"mocha"},
		"pytest": {"pytest"},
		"rspec":  {"rspec"},
	},
	"build": {
		"webpack": {"webpack"},
		"vite":    {"vite"},
		"rollup":  {"rollup"},
		"esbuild": {"esbuild"},
	},
}

// typeCategories are the categories that can determine the repository type;
// the remaining categories contribute confidence evidence only.
var typeCategories = []string{"frontend", "backend", "ai", "mobile"}

// configFileSignatures adds framework evidence from build/config files,
// probed only at higher analysis depth. Each entry credits one identifier
// of the named framework.
var configFileSignatures = []struct {
	Path      string
	Category  string
	Framework string
	Ident     string
}{
	{"next.config.js", "frontend", "next", "next"},
	{"angular.json", "frontend", "angular", "@angular/core"},
	{"vite.config.ts", "build", "vite", "vite"},
	{"tailwind.config.js", "css", "tailwind", "tailwindcss"},
	{"hardhat.config.js", "web3", "hardhat", "hardhat"},
}
