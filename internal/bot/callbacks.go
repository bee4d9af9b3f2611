package bot

import (
	"fmt"

	"racebot/internal/admin"
	"racebot/internal/domain"
	"racebot/pkg/tgui"
)

// Callback namespaces and the typed actions they decode into. Raw callback
// data is parsed exactly once, here; handlers only ever see typed values.
const (
	nsMenu  = "menu"
	nsLang  = "lang"
	nsBingo = "bingo"
	nsAdmin = "admin"
)

type menuOpen struct {
	Screen string // main, pre_race, post_race, bingo, language
}

type langSelect struct {
	Lang string
}

type bingoToggle struct {
	CellID string
}

type bingoFinish struct{}

type adminList struct {
	Kind domain.ContentKind
}

type adminDecide struct {
	Action admin.Action
	Key    domain.ContentKey
}

type adminGenerate struct {
	Kind domain.ContentKind
}

func parseKind(s string) (domain.ContentKind, error) {
	kind := domain.ContentKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("bad content kind %q", s)
	}
	return kind, nil
}

// decodeCallback turns raw callback data into one of the typed actions
// above. Unknown or malformed data is an error; the router answers the
// callback and drops it.
func decodeCallback(data string) (any, error) {
	ns, action, args := tgui.Split(data)
	switch ns {
	case nsMenu:
		switch action {
		case "main", "pre_race", "post_race", "bingo", "language":
			return menuOpen{Screen: action}, nil
		}
		return nil, fmt.Errorf("bad menu screen %q", action)

	case nsLang:
		if action != "ru" && action != "en" {
			return nil, fmt.Errorf("bad language %q", action)
		}
		return langSelect{Lang: action}, nil

	case nsBingo:
		switch action {
		case "toggle":
			if len(args) != 1 || args[0] == "" {
				return nil, fmt.Errorf("bingo toggle: missing cell id")
			}
			return bingoToggle{CellID: args[0]}, nil
		case "finish":
			return bingoFinish{}, nil
		}
		return nil, fmt.Errorf("bad bingo action %q", action)

	case nsAdmin:
		switch action {
		case "list":
			if len(args) != 1 {
				return nil, fmt.Errorf("admin list: missing kind")
			}
			kind, err := parseKind(args[0])
			if err != nil {
				return nil, err
			}
			return adminList{Kind: kind}, nil
		case "generate":
			if len(args) != 1 {
				return nil, fmt.Errorf("admin generate: missing kind")
			}
			kind, err := parseKind(args[0])
			if err != nil {
				return nil, err
			}
			return adminGenerate{Kind: kind}, nil
		case string(admin.ActionApprove), string(admin.ActionCancel):
			if len(args) != 3 {
				return nil, fmt.Errorf("admin %s: want kind/event/lang args", action)
			}
			kind, err := parseKind(args[0])
			if err != nil {
				return nil, err
			}
			key, err := domain.NewContentKey(args[1], kind, args[2])
			if err != nil {
				return nil, err
			}
			return adminDecide{Action: admin.Action(action), Key: key}, nil
		}
		return nil, fmt.Errorf("bad admin action %q", action)
	}
	return nil, fmt.Errorf("unknown callback namespace %q", ns)
}
