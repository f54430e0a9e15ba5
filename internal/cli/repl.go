package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// repl runs a simple read-eval-print loop. It reads a line, parses the
// first token as the command, and dispatches. The loop exits on EOF or when
// the user types "exit" or "quit".
//
// Commands:
//
//	status    : show the current login state
//	login     : paste a session cookie (hidden input) and log in
//	logout    : log out and purge the stored credential and cache
//	refresh   : revalidate the session and re-pull data
//	profile   : show the cached profile
//	courses   : show cached courses and their assignments
//	help      : list commands
//	exit, quit: leave
//
// Command handlers print their own errors; the loop itself never fails.
func (a *App) repl(ctx context.Context) {
	fmt.Println("cool-tracker, type 'help' for commands")
	for {
		state := a.authManager.State()
		line, err := GetSimpleText(a.reader, fmt.Sprintf("[%s]", state.Status), os.Stdout)
		if err != nil {
			return
		}

		cmd, _, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
		case "status":
			fmt.Println("login state:", state.Status)
		case "login":
			a.login(ctx)
		case "logout":
			a.authManager.Logout(ctx)
			fmt.Println("logged out")
		case "refresh":
			a.refresh(ctx)
		case "profile":
			a.showProfile()
		case "courses":
			a.showCourses()
		case "help":
			fmt.Println("commands: status login logout refresh profile courses help exit")
		case "exit", "quit":
			return
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func (a *App) login(ctx context.Context) {
	credential, err := GetSecret("Paste session cookie", os.Stdout)
	if err != nil {
		fmt.Println("could not read cookie:", err)
		return
	}
	if credential == "" {
		fmt.Println("empty cookie, aborting")
		return
	}
	a.OnCredentialObtained(ctx, credential)
}

func (a *App) refresh(ctx context.Context) {
	done := make(chan struct{})
	a.syncService.Refresh(ctx, func() { close(done) })
	<-done
	fmt.Println("refresh done, state:", a.authManager.State().Status)
}

func (a *App) showProfile() {
	p := a.syncService.GetProfile()
	if p == nil {
		fmt.Println("no cached profile")
		return
	}
	fmt.Printf("%s <%s>\n", p.Name, p.PrimaryEmail)
	if p.Bio != "" {
		fmt.Println(p.Bio)
	}
}

func (a *App) showCourses() {
	list := a.syncService.GetCoursesWithAssignments()
	if len(list) == 0 {
		fmt.Println("no cached courses")
		return
	}
	now := time.Now()
	for _, cwa := range list {
		fmt.Printf("%s (%s)\n", cwa.Course.LocalizedName(), cwa.Course.CourseCode)
		for _, a := range cwa.Assignments {
			mark := " "
			if a.Submitted {
				mark = "x"
			}
			fmt.Printf("  [%s] %s  due %s (%s left)\n",
				mark, a.Name, a.DueTime.Local().Format("2006-01-02 15:04"), a.Remaining(now).Round(time.Minute))
		}
	}
}
