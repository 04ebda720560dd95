package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ignoreDirs are directory basenames pruned from the walk: version control,
// dependency caches, build output, virtual envs, IDE state.
var ignoreDirs = map[string]struct{}{
	".git":          {},
	".svn":          {},
	".hg":           {},
	"node_modules":  {},
	"__pycache__":   {},
	".pytest_cache": {},
	"target":        {},
	"build":         {},
	"dist":          {},
	".gradle":       {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	".idea":         {},
	".vscode":       {},
	".vs":           {},
	"logs":          {},
	"log":           {},
	"tmp":           {},
	"temp":          {},
}

// ignoreFiles are file basenames excluded from all statistics.
var ignoreFiles = map[string]struct{}{
	".gitignore":   {},
	".gitkeep":     {},
	".DS_Store":    {},
	"Thumbs.db":    {},
	".env.example": {},
}

// manifestFiles are dependency-manifest filenames checked at the repository
// root, in reporting order.
var manifestFiles = []string{
	"package.json",
	"requirements.txt",
	"Pipfile",
	"pyproject.toml",
	"pom.xml",
	"build.gradle",
	"Cargo.toml",
	"go.mod",
	"composer.json",
	"packages.config",
	"Directory.Build.props",
	"global.json",
	"Gemfile",
}

// projectFileGlobs are root-level glob patterns for project descriptors;
// a match reports the extension without the wildcard.
var projectFileGlobs = []string{
	"*.csproj",
	"*.vbproj",
	"*.fsproj",
	"*.sln",
}

// otherConfigFiles are additional root-level configuration files and
// directories reported when present.
var otherConfigFiles = []string{
	"Dockerfile",
	"docker-compose.yml",
	"docker-compose.yaml",
	".dockerignore",
	"Jenkinsfile",
	".gitlab-ci.yml",
	"azure-pipelines.yml",
	"bitbucket-pipelines.yml",
	".github/workflows",
	".circleci/config.yml",
	"terraform",
	"k8s",
	"kubernetes",
	"helm",
}

// readmePrefix marks documentation files that satisfy the README check.
const readmePrefix = "README"

// FrameworkPattern maps dependency-name substrings to a human-readable
// framework label. The tables are data, not logic: matching is a flat
// case-insensitive substring check against manifest dependency names.
type FrameworkPattern struct {
	// Label is the framework name reported in the technology stack.
	Label string `yaml:"label"`

	// Patterns are substrings matched against dependency identifiers.
	Patterns []string `yaml:"patterns"`
}

// frameworkPatterns is the built-in detection table. False positives and
// negatives are tolerated; the output seeds human review, not a BOM.
var frameworkPatterns = []FrameworkPattern{
	// .NET.
	{Label: "ASP.NET Core", Patterns: []string{"microsoft.aspnetcore", "aspnetcore"}},
	{Label: "ASP.NET Framework", Patterns: []string{"system.web", "microsoft.aspnet", "webforms"}},
	{Label: "Entity Framework", Patterns: []string{"microsoft.entityframeworkcore", "entityframework"}},
	{Label: "WPF", Patterns: []string{"microsoft.windowsdesktop.app", "presentationframework"}},
	{Label: "WinForms", Patterns: []string{"system.windows.forms"}},
	{Label: "Blazor", Patterns: []string{"blazor"}},
	{Label: "SignalR", Patterns: []string{"signalr"}},
	{Label: "Xamarin", Patterns: []string{"xamarin.forms", "xamarin.ios", "xamarin.android"}},
	{Label: "MAUI", Patterns: []string{"microsoft.maui"}},

	// Java.
	{Label: "Spring Boot", Patterns: []string{"spring-boot-starter", "spring-boot"}},
	{Label: "Spring Framework", Patterns: []string{"springframework", "spring-context", "spring-core"}},
	{Label: "Spring Security", Patterns: []string{"spring-security"}},
	{Label: "Spring Data", Patterns: []string{"spring-data"}},
	{Label: "Hibernate", Patterns: []string{"hibernate-core", "hibernate-entitymanager"}},
	{Label: "JPA", Patterns: []string{"javax.persistence", "jakarta.persistence"}},
	{Label: "Jersey", Patterns: []string{"jersey-server", "jersey-client"}},
	{Label: "Dropwizard", Patterns: []string{"dropwizard"}},
	{Label: "Micronaut", Patterns: []string{"micronaut"}},
	{Label: "Quarkus", Patterns: []string{"quarkus"}},

	// Python.
	{Label: "Django", Patterns: []string{"django"}},
	{Label: "Flask", Patterns: []string{"flask"}},
	{Label: "FastAPI", Patterns: []string{"fastapi"}},
	{Label: "Tornado", Patterns: []string{"tornado"}},
	{Label: "Pyramid", Patterns: []string{"pyramid"}},
	{Label: "Starlette", Patterns: []string{"starlette"}},

	// JavaScript / TypeScript.
	{Label: "Express.js", Patterns: []string{"express"}},
	{Label: "NestJS", Patterns: []string{"@nestjs/core", "nestjs"}},
	{Label: "Koa", Patterns: []string{"koa"}},
	{Label: "Fastify", Patterns: []string{"fastify"}},
	{Label: "Next.js", Patterns: []string{"next"}},
	{Label: "Nuxt.js", Patterns: []string{"nuxt"}},
	{Label: "React", Patterns: []string{"react"}},
	{Label: "Vue.js", Patterns: []string{"vue"}},
	{Label: "Angular", Patterns: []string{"@angular/core", "angular"}},
	{Label: "Svelte", Patterns: []string{"svelte"}},

	// PHP.
	{Label: "Laravel", Patterns: []string{"laravel/framework", "laravel"}},
	{Label: "Symfony", Patterns: []string{"symfony/framework", "symfony"}},
	{Label: "CodeIgniter", Patterns: []string{"codeigniter"}},
	{Label: "CakePHP", Patterns: []string{"cakephp/cakephp"}},

	// Ruby.
	{Label: "Ruby on Rails", Patterns: []string{"rails"}},
	{Label: "Sinatra", Patterns: []string{"sinatra"}},

	// Go.
	{Label: "Gin", Patterns: []string{"gin-gonic/gin"}},
	{Label: "Echo", Patterns: []string{"labstack/echo"}},
	{Label: "Fiber", Patterns: []string{"gofiber/fiber"}},

	// Rust.
	{Label: "Actix", Patterns: []string{"actix-web"}},
	{Label: "Rocket", Patterns: []string{"rocket"}},
	{Label: "Axum", Patterns: []string{"axum"}},

	// Messaging, data stores, RPC.
	{Label: "Apache Kafka", Patterns: []string{"kafka"}},
	{Label: "RabbitMQ", Patterns: []string{"rabbitmq", "amqp"}},
	{Label: "Redis", Patterns: []string{"redis", "jedis"}},
	{Label: "Elasticsearch", Patterns: []string{"elasticsearch"}},
	{Label: "GraphQL", Patterns: []string{"graphql", "apollo"}},
	{Label: "gRPC", Patterns: []string{"grpc", "protobuf"}},

	// Data and analytics.
	{Label: "Apache Spark", Patterns: []string{"pyspark", "org.apache.spark"}},
	{Label: "Apache Airflow", Patterns: []string{"airflow"}},
	{Label: "Pandas", Patterns: []string{"pandas"}},
	{Label: "NumPy", Patterns: []string{"numpy"}},

	// Testing.
	{Label: "Jest", Patterns: []string{"jest", "@jest/"}},
	{Label: "Mocha", Patterns: []string{"mocha"}},
	{Label: "Cypress", Patterns: []string{"cypress"}},
	{Label: "Playwright", Patterns: []string{"playwright"}},
	{Label: "pytest", Patterns: []string{"pytest"}},
	{Label: "JUnit", Patterns: []string{"junit"}},

	// Build tooling.
	{Label: "Vite", Patterns: []string{"vite", "@vitejs"}},
	{Label: "Webpack", Patterns: []string{"webpack"}},
	{Label: "esbuild", Patterns: []string{"esbuild"}},
}

// LoadPatternsFile reads additional framework patterns from a YAML file.
// The returned patterns are matched after the built-in table.
func LoadPatternsFile(path string) ([]FrameworkPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns file: %w", err)
	}

	var patterns []FrameworkPattern

	unmarshalErr := yaml.Unmarshal(data, &patterns)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("parse patterns file: %w", unmarshalErr)
	}

	return patterns, nil
}
