// Command sweet is a CLI client for the sweetshop backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/api"
	"github.com/adesaini/sweetshop-client/internal/catalog"
	"github.com/adesaini/sweetshop-client/internal/config"
	"github.com/adesaini/sweetshop-client/internal/model"
	"github.com/adesaini/sweetshop-client/internal/session"
	"github.com/adesaini/sweetshop-client/internal/view"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `sweet CLI
Usage:
  sweet [-server URL] [-config file] <cmd> [args]

Commands:
  version
  register   -u <username> -e <email> -p <password> [-role USER|ADMIN]
  login      -e <email> -p <password>              (saves session)
  logout
  whoami
  list       [-sort name|price|quantity|category] [-desc] [-view grid|list]
  search     [-name s] [-category s] [-min n] [-max n] [-sort ...] [-desc]
  get        -id <n>
  add        -name s -category s -price n -qty n   (admin)
  edit       -id <n> [-name s] [-category s] [-price n] [-qty n]
  rm         -id <n>                               (admin)
  restock    -id <n> [-qty n]                      (default 10)
  purchase   -id <n> [-qty n]                      (default 1)
  dashboard
`)
	os.Exit(2)
}

// app bundles the wired client packages for one invocation.
type app struct {
	store   *session.Store
	catalog *catalog.Catalog
	ctrl    *view.Controller
	client  *api.Client
}

func buildApp(server, configFile string) (*app, error) {
	loader, err := config.Load(configFile, nil)
	if err != nil {
		return nil, err
	}
	cfg := loader.Get()
	if server == "" {
		server = cfg.ServerURL
	}

	var store *session.Store
	client := api.New(server, cfg.Timeout, api.TokenFunc(func() string { return store.Token() }), zap.NewNop())
	store = session.New(client, cfg.SessionDir, nil)

	cat := catalog.New(client, nil)
	ctrl := view.New(client, cat, nil)
	return &app{store: store, catalog: cat, ctrl: ctrl, client: client}, nil
}

// main dispatches subcommands against the backend configured by flags.
func main() {
	server := flag.String("server", "", "backend base URL (overrides config)")
	configFile := flag.String("config", "", "config file (yaml)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cmd == "version" {
		fmt.Printf("sweet %s (%s)\n", version, buildDate)
		return
	}

	a, err := buildApp(*server, *configFile)
	if err != nil {
		fail(err)
	}

	switch cmd {

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		role := fs.String("role", "USER", "role (USER or ADMIN)")
		_ = fs.Parse(args)
		if *u == "" || *e == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u, -e and -p")
			os.Exit(1)
		}
		if err := a.store.Register(ctx, *u, *e, *p, model.Role(*role)); err != nil {
			fail(err)
		}
		fmt.Println("registered; now run: sweet login -e", *e, "-p <password>")

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if *e == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -e and -p")
			os.Exit(1)
		}
		sess, err := a.store.Login(ctx, *e, *p)
		if err != nil {
			fail(err)
		}
		fmt.Printf("logged in as %s (%s)\n", sess.Username, sess.Role)

	case "logout":
		a.store.Logout()
		fmt.Println("ok")

	case "whoami":
		sess, err := a.store.Current()
		if err != nil {
			fail(err)
		}
		sess.Token = "" // never print credentials
		printJSON(sess)

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		sortKey := fs.String("sort", "name", "sort key")
		desc := fs.Bool("desc", false, "descending")
		mode := fs.String("view", "grid", "grid or list")
		_ = fs.Parse(args)

		a.ctrl.SetSort(model.SortSpec{Key: model.SortKey(*sortKey), Desc: *desc})
		a.ctrl.SetViewMode(model.ViewMode(*mode))
		if err := a.catalog.LoadAll(ctx); err != nil {
			fail(err)
		}
		printSweets(a.ctrl.Visible(), a.ctrl.Mode())

	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		name := fs.String("name", "", "name contains")
		category := fs.String("category", "", "category contains")
		minPrice := fs.Float64("min", -1, "min price")
		maxPrice := fs.Float64("max", -1, "max price")
		sortKey := fs.String("sort", "name", "sort key")
		desc := fs.Bool("desc", false, "descending")
		_ = fs.Parse(args)

		f := model.SearchFilter{Name: *name, Category: *category}
		if *minPrice >= 0 {
			f.MinPrice = minPrice
		}
		if *maxPrice >= 0 {
			f.MaxPrice = maxPrice
		}
		a.ctrl.SetSort(model.SortSpec{Key: model.SortKey(*sortKey), Desc: *desc})
		if err := a.catalog.Search(ctx, f); err != nil {
			fail(err)
		}
		printSweets(a.ctrl.Visible(), model.ViewGrid)

	case "get":
		fs := flag.NewFlagSet("get", flag.ExitOnError)
		id := fs.Int64("id", 0, "sweet id")
		_ = fs.Parse(args)
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		s, err := a.client.GetSweet(ctx, *id)
		if err != nil {
			fail(err)
		}
		printJSON(s)

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		name := fs.String("name", "", "name")
		category := fs.String("category", "", "category")
		price := fs.Float64("price", -1, "price")
		qty := fs.Int64("qty", -1, "quantity")
		_ = fs.Parse(args)
		if *name == "" || *category == "" || *price < 0 || *qty < 0 {
			fmt.Fprintln(os.Stderr, "need -name -category -price -qty")
			os.Exit(1)
		}
		in := model.SweetInput{Name: *name, Category: *category, Price: *price, Quantity: *qty}
		if err := a.ctrl.Create(ctx, in); err != nil {
			fail(err)
		}
		fmt.Println(noticeText(a.ctrl))

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ExitOnError)
		id := fs.Int64("id", 0, "sweet id")
		name := fs.String("name", "", "name")
		category := fs.String("category", "", "category")
		price := fs.Float64("price", -1, "price")
		qty := fs.Int64("qty", -1, "quantity")
		_ = fs.Parse(args)
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		// unspecified flags keep the current values
		cur, err := a.client.GetSweet(ctx, *id)
		if err != nil {
			fail(err)
		}
		in := model.SweetInput{Name: cur.Name, Category: cur.Category, Price: cur.Price, Quantity: cur.Quantity}
		if *name != "" {
			in.Name = *name
		}
		if *category != "" {
			in.Category = *category
		}
		if *price >= 0 {
			in.Price = *price
		}
		if *qty >= 0 {
			in.Quantity = *qty
		}
		if err := a.ctrl.Update(ctx, *id, in); err != nil {
			fail(err)
		}
		fmt.Println(noticeText(a.ctrl))

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.Int64("id", 0, "sweet id")
		_ = fs.Parse(args)
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.ctrl.Delete(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println(noticeText(a.ctrl))

	case "restock":
		fs := flag.NewFlagSet("restock", flag.ExitOnError)
		id := fs.Int64("id", 0, "sweet id")
		qty := fs.Int64("qty", 0, "units to add (default 10)")
		_ = fs.Parse(args)
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.ctrl.Restock(ctx, *id, *qty); err != nil {
			fail(err)
		}
		fmt.Println(noticeText(a.ctrl))

	case "purchase":
		fs := flag.NewFlagSet("purchase", flag.ExitOnError)
		id := fs.Int64("id", 0, "sweet id")
		qty := fs.Int64("qty", 0, "units to buy (default 1)")
		_ = fs.Parse(args)
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.ctrl.Purchase(ctx, *id, *qty); err != nil {
			fail(err)
		}
		fmt.Println(noticeText(a.ctrl))

	case "dashboard":
		if err := a.catalog.LoadAll(ctx); err != nil {
			fail(err)
		}
		st := a.ctrl.Stats()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Total sweets:\t%d\n", st.TotalSweets)
		fmt.Fprintf(w, "Low stock:\t%d\n", st.LowStock)
		fmt.Fprintf(w, "Inventory value:\t$%.2f\n", st.TotalValue)
		fmt.Fprintf(w, "Popular category:\t%s\n", st.PopularCategory)
		_ = w.Flush()

	default:
		usage()
	}
}

// ---- helpers ----

func printSweets(items []model.Sweet, mode model.ViewMode) {
	if len(items) == 0 {
		fmt.Println("no sweets found")
		return
	}
	if mode == model.ViewList {
		for _, s := range items {
			fmt.Printf("#%d %s (%s): $%.2f, %d in stock\n", s.ID, s.Name, s.Category, s.Price, s.Quantity)
		}
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tQTY")
	for _, s := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%d\n", s.ID, s.Name, s.Category, s.Price, s.Quantity)
	}
	_ = w.Flush()
}

func noticeText(c *view.Controller) string {
	if n := c.Notice(); n != nil {
		return n.Text
	}
	return "ok"
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
