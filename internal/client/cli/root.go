package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus(ctx context.Context) string {
	s := ""
	if name, err := a.auth.UserName(ctx); err == nil && name != "" {
		s = name
	}
	if !a.isLoggedIn(ctx) && s != "" {
		s += " offline"
	}
	if n := len(a.syncer.Conflicts()); n > 0 {
		s = strings.TrimSpace(fmt.Sprintf("%s %d conflicts", s, n))
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to notesync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("notesync %s> ", a.getStatus(ctx))
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Println("Available commands: (l)ist, show <id>, addnote, addtodo, addlabel, edit <id>, check <id> <item>, delete <id>, sync, conflicts, pick <id> local|server, pair, importpair, wipe, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, (l)ist, show <id>, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "wipe":
			a.Wipe(ctx)
		case "l", "list":
			a.list(ctx)
		case "show":
			if len(args) == 0 {
				fmt.Println("Usage: show <id>")
				continue
			}
			a.show(ctx, args[0])
		case "addnote":
			a.addNote(ctx)
		case "addtodo":
			a.addTodo(ctx)
		case "addlabel":
			a.addLabel(ctx)
		case "edit":
			if len(args) == 0 {
				fmt.Println("Usage: edit <id>")
				continue
			}
			a.edit(ctx, args[0])
		case "check":
			if len(args) < 2 {
				fmt.Println("Usage: check <id> <item-id>")
				continue
			}
			a.check(ctx, args[0], args[1])
		case "delete":
			if len(args) == 0 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			a.delete(ctx, args[0])
		case "sync":
			if err := a.syncer.SyncNow(ctx); err != nil {
				log.Printf("sync error: %v", err)
			}
		case "conflicts":
			a.conflicts()
		case "pick":
			if len(args) < 2 {
				fmt.Println("Usage: pick <id> local|server")
				continue
			}
			a.pick(ctx, args[0], args[1])
		case "pair":
			a.pair(ctx)
		case "importpair":
			a.importPair(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
