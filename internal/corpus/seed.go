package corpus

// SeedCommands are common commands merged into the index at startup so a
// freshly installed service gives useful answers before any training.
var SeedCommands = []string{
	// git
	"git status", "git add", "git commit", "git push", "git pull",
	"git clone", "git branch", "git checkout", "git merge",
	"git log", "git reset", "git fetch", "git rebase",

	// docker
	"docker ps", "docker run", "docker build", "docker images", "docker logs",
	"docker exec", "docker stats", "docker stop", "docker start", "docker pull",

	// python
	"python manage.py runserver", "python --version", "python -m pip install",
	"python -m venv env", "python script.py", "python setup.py install",

	// npm
	"npm install", "npm start", "npm run build", "npm test", "npm update",
	"npm uninstall",

	// go
	"go build", "go test ./...", "go run .", "go mod tidy",
}
