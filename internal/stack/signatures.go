package stack

import "strings"

// --- Signature tables ---
//
// Tables are ordered so that labels are reported in a stable order. Several
// dependencies may map to the same label; the builder deduplicates.

// signature maps one dependency name to a canonical label.
type signature struct {
	dep   string
	label string
}

// finding is one detected label in one category.
type finding struct {
	category Category
	label    string
}

// frameworkSignatures maps package.json dependencies to framework labels.
var frameworkSignatures = []signature{
	{"express", "Express.js"},
	{"next", "Next.js"},
	{"react", "React.js"},
	{"vue", "Vue.js"},
	{"nuxt", "Nuxt.js"},
	{"@angular/core", "Angular"},
	{"svelte", "Svelte"},
	{"@nestjs/core", "NestJS"},
	{"fastify", "Fastify"},
	{"koa", "Koa"},
}

// databaseSignatures maps package.json dependencies to database labels.
var databaseSignatures = []signature{
	{"mongoose", "MongoDB (Mongoose)"},
	{"prisma", "Prisma (PostgreSQL/MySQL)"},
	{"sequelize", "Sequelize (SQL)"},
	{"typeorm", "TypeORM (SQL)"},
	{"pg", "PostgreSQL"},
	{"mysql2", "MySQL"},
	{"mongodb", "MongoDB"},
	{"redis", "Redis"},
	{"ioredis", "Redis"},
}

// toolSignatures maps package.json dependencies to auxiliary tool labels.
var toolSignatures = []signature{
	{"socket.io", "Socket.io (WebSockets)"},
	{"graphql", "GraphQL API"},
	{"tailwindcss", "Tailwind CSS"},
	{"@prisma/client", "Prisma (ORM)"},
	{"prisma", "Prisma (ORM)"},
	{"typescript", "TypeScript"},
	{"vite", "Vite"},
	{"webpack", "Webpack"},
	{"jest", "Jest"},
	{"vitest", "Vitest"},
}

// signatureTables pairs each table with the category its labels land in.
var signatureTables = []struct {
	category Category
	table    []signature
}{
	{Frameworks, frameworkSignatures},
	{Databases, databaseSignatures},
	{OtherTools, toolSignatures},
}

// mapDependencies looks every dependency up in the three tables. A
// dependency contributes at most one label per table.
func mapDependencies(deps map[string]bool) []finding {
	var out []finding
	for _, t := range signatureTables {
		for _, sig := range t.table {
			if deps[sig.dep] {
				out = append(out, finding{category: t.category, label: sig.label})
			}
		}
	}
	return out
}

// --- Keyword tables ---

// keywordRule is a case-insensitive substring match. Keywords are stored
// lower-case.
type keywordRule struct {
	keyword  string
	category Category
	label    string
}

// pythonRules apply to requirements.txt and pyproject.toml.
var pythonRules = []keywordRule{
	{"flask", Frameworks, "Flask"},
	{"django", Frameworks, "Django"},
	{"fastapi", Frameworks, "FastAPI"},
	{"psycopg2", Databases, "PostgreSQL"},
	{"sqlalchemy", Databases, "PostgreSQL"},
	{"pymongo", Databases, "MongoDB"},
}

// goModRules apply to go.mod.
var goModRules = []keywordRule{
	{"github.com/gin-gonic/gin", Frameworks, "Gin (Go)"},
	{"github.com/labstack/echo", Frameworks, "Echo (Go)"},
	{"github.com/gofiber/fiber", Frameworks, "Fiber (Go)"},
	{"gorm.io/gorm", Databases, "PostgreSQL (GORM)"},
}

// mavenRules apply to pom.xml.
var mavenRules = []keywordRule{
	{"<artifactid>postgresql</artifactid>", Databases, "PostgreSQL"},
}

// gradleRules apply to build.gradle.
var gradleRules = []keywordRule{
	{"org.postgresql", Databases, "PostgreSQL"},
}

// secondaryManifests are language-specific build files read as plain text.
// implies is added whenever the file exists, regardless of content.
var secondaryManifests = []struct {
	name    string
	rules   []keywordRule
	implies []finding
}{
	{name: "requirements.txt", rules: pythonRules},
	{name: "pyproject.toml", rules: pythonRules},
	{name: "go.mod", rules: goModRules},
	{name: "pom.xml", rules: mavenRules, implies: []finding{{Frameworks, "Spring Boot"}}},
	{name: "build.gradle", rules: gradleRules, implies: []finding{{Frameworks, "Spring Boot"}}},
}

// sourceRules are matched against the first MaxLines lines of source files.
var sourceRules = []keywordRule{
	{"fastapi", Frameworks, "FastAPI"},
	{"django", Frameworks, "Django"},
	{"from flask", Frameworks, "Flask"},
	{"from 'react'", Frameworks, "React.js"},
	{"from \"react\"", Frameworks, "React.js"},
	{"from 'vue'", Frameworks, "Vue.js"},
	{"from \"vue\"", Frameworks, "Vue.js"},
	{"from 'next/", Frameworks, "Next.js"},
	{"from \"next/", Frameworks, "Next.js"},
	{"@angular/core", Frameworks, "Angular"},
	{"require('express')", Frameworks, "Express.js"},
	{"require(\"express\")", Frameworks, "Express.js"},
	{"from 'express'", Frameworks, "Express.js"},
	{"from \"express\"", Frameworks, "Express.js"},
	{"github.com/gin-gonic/gin", Frameworks, "Gin (Go)"},
	{"github.com/labstack/echo", Frameworks, "Echo (Go)"},
	{"github.com/gofiber/fiber", Frameworks, "Fiber (Go)"},
	{"org.springframework", Frameworks, "Spring Boot"},
	{"mongoose", Databases, "MongoDB (Mongoose)"},
	{"sequelize", Databases, "Sequelize (SQL)"},
	{"@prisma/client", Databases, "Prisma (PostgreSQL/MySQL)"},
	{"psycopg2", Databases, "PostgreSQL"},
	{"sqlalchemy", Databases, "PostgreSQL"},
	{"pymongo", Databases, "MongoDB"},
	{"gorm.io/gorm", Databases, "PostgreSQL (GORM)"},
	{"socket.io", OtherTools, "Socket.io (WebSockets)"},
	{"graphql", OtherTools, "GraphQL API"},
}

// markerFiles imply a label by their mere presence at the project root.
var markerFiles = []struct {
	name  string
	found finding
}{
	{"docker-compose.yml", finding{OtherTools, "Docker"}},
	{"docker-compose.yaml", finding{OtherTools, "Docker"}},
	{"compose.yaml", finding{OtherTools, "Docker"}},
	{"tailwind.config.js", finding{OtherTools, "Tailwind CSS"}},
	{"tailwind.config.ts", finding{OtherTools, "Tailwind CSS"}},
	{"tailwind.config.cjs", finding{OtherTools, "Tailwind CSS"}},
	{"tailwind.config.mjs", finding{OtherTools, "Tailwind CSS"}},
}

// matchKeywords returns the findings whose keyword occurs in text.
// text must already be lower-case.
func matchKeywords(text string, rules []keywordRule) []finding {
	var out []finding
	for _, r := range rules {
		if strings.Contains(text, r.keyword) {
			out = append(out, finding{category: r.category, label: r.label})
		}
	}
	return out
}
