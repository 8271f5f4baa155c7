package template

import (
	"bytes"
	"text/template"
)

// The generated page targets the Next.js App Router; templates using the
// older layouts get the same TSX content at their own landing-page path.
var landingPageTmpl = template.Must(template.New("landing").Parse(`/**
 * This page was generated automatically when the repository was provisioned.
 */
export default function Home() {
  const projectTitle = "{{.DisplayName}}";

  return (
    <div className="flex flex-col items-center justify-center min-h-screen p-8 text-center bg-gray-50 dark:bg-gray-900 text-gray-900 dark:text-gray-50">
      <main className="flex flex-col items-center justify-center gap-8 p-10 rounded-xl shadow-2xl bg-white dark:bg-gray-800">
        <h1 className="text-4xl sm:text-6xl font-extrabold tracking-tight">
          Welcome to <span className="text-blue-600 dark:text-blue-400">{projectTitle}</span>
        </h1>
        <p className="text-xl sm:text-2xl text-gray-600 dark:text-gray-400">
          Your project is provisioned and ready for deployment.
        </p>
        <a
          className="rounded-full flex items-center justify-center bg-blue-600 text-white gap-2 px-6 py-3 font-semibold hover:bg-blue-700 dark:bg-blue-500 dark:hover:bg-blue-600"
          href="https://github.com/{{.RepoOwner}}/{{.RepoName}}"
          target="_blank"
          rel="noopener noreferrer"
        >
          View on GitHub
        </a>
      </main>
    </div>
  );
}
`))

func renderLandingPage(subs Substitutions) ([]byte, error) {
	var buf bytes.Buffer
	if err := landingPageTmpl.Execute(&buf, subs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
