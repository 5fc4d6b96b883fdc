package cmd

import (
	"fmt"
	"go/token"
	"log/slog"
	"sort"
	"strings"

	"github.com/cottand/sable/frontend/ast"
	"github.com/cottand/sable/frontend/serr"
	"github.com/cottand/sable/frontend/types"
	"github.com/cottand/sable/internal/log"
	"github.com/spf13/cobra"
)

var SolveCmd = &cobra.Command{
	Use:          "solve scenario",
	Short:        "Run a built-in inference scenario and print its solutions",
	RunE:         runSolve,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var solveLogLevel *int

func init() {
	solveLogLevel = SolveCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

// scenario builds one self-contained inference problem: declarations, an
// expression, and any contextual constraints. It returns the root expression.
type scenario struct {
	describe string
	build    func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr
}

var scenarios = map[string]scenario{
	"literal": {
		describe: "a bare integer literal defaults to Int",
		build: func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr {
			expr := &ast.IntLit{Range: at(0), Value: 42}
			g.Visit(expr)
			return expr
		},
	},
	"overload": {
		describe: "f() where f: () -> Int and f: () -> String, result constrained to Int",
		build: func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr {
			u.DeclareFunc("f", nil, u.IntType())
			u.DeclareFunc("f", nil, u.StringType())
			expr := &ast.CallExpr{Range: at(0), Fn: &ast.NameRef{Range: at(1), Name: "f"}}
			result := g.Visit(expr)
			loc := cs.GetConstraintLocator(expr)
			cs.AddConstraint(cs.NewConstraint(types.KindConversion, result, u.IntType(), loc))
			return expr
		},
	},
	"ambiguous": {
		describe: "f(x) where both overloads of f accept an Int and nothing constrains the result",
		build: func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr {
			u.DeclareFunc("f", []types.Type{u.IntType()}, u.IntType())
			u.DeclareFunc("f", []types.Type{u.IntType()}, u.StringType())
			u.DeclareVar("x", u.IntType())
			expr := &ast.CallExpr{
				Range: at(0),
				Fn:    &ast.NameRef{Range: at(1), Name: "f"},
				Args:  []ast.Expr{&ast.NameRef{Range: at(3), Name: "x"}},
			}
			g.Visit(expr)
			return expr
		},
	},
	"generic": {
		describe: "id(1) where id<T>: (T) -> T; the opened parameter binds to Int",
		build: func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr {
			t := &types.GenericParamType{Name: "T"}
			u.DeclareGenericFunc("id",
				&types.GenericSignature{Params: []*types.GenericParamType{t}},
				&types.FuncType{Params: []types.Type{t}, Ret: t},
			)
			expr := &ast.CallExpr{
				Range: at(0),
				Fn:    &ast.NameRef{Range: at(1), Name: "id"},
				Args:  []ast.Expr{&ast.IntLit{Range: at(4), Value: 1}},
			}
			g.Visit(expr)
			return expr
		},
	},
	"dynamic": {
		describe: "obj.count through a bare existential resolves by runtime-name lookup",
		build: func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr {
			anyObj := &types.ProtocolDecl{Name: "AnyObject"}
			counter := &types.TypeDecl{Name: "Counter", IsClass: true}
			u.DeclareDynamic(&types.ValueDecl{
				Name:          "count",
				Kind:          types.VarDecl,
				InterfaceType: u.IntType(),
				Context:       types.NewNominalContext(counter, u.Module),
			})
			u.DeclareVar("obj", &types.ProtocolType{Decl: anyObj})
			expr := &ast.MemberExpr{
				Range: at(0),
				Base:  &ast.NameRef{Range: at(0), Name: "obj"},
				Name:  "count",
			}
			g.Visit(expr)
			return expr
		},
	},
	"member": {
		describe: "p.x where p: Point and Point.x: Int",
		build: func(u *types.Universe, cs *types.ConstraintSystem, g *types.Generator) ast.Expr {
			point := &types.TypeDecl{Name: "Point"}
			u.DeclareMember(point, &types.ValueDecl{
				Name:          "x",
				Kind:          types.VarDecl,
				InterfaceType: u.IntType(),
				Settable:      true,
			})
			u.DeclareVar("p", &types.NominalType{Decl: point})
			expr := &ast.MemberExpr{
				Range: at(0),
				Base:  &ast.NameRef{Range: at(0), Name: "p"},
				Name:  "x",
			}
			g.Visit(expr)
			return expr
		},
	},
}

func at(n int) ast.Range {
	return ast.Range{PosStart: token.Pos(n + 1), PosEnd: token.Pos(n + 2)}
}

func runSolve(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*solveLogLevel))

	sc, ok := scenarios[args[0]]
	if !ok {
		names := make([]string, 0, len(scenarios))
		for name := range scenarios {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown scenario %q, available: %s", args[0], strings.Join(names, ", "))
	}

	u := types.NewUniverse()
	cs := u.NewSystem(types.DefaultSolverOpts())
	g := types.NewGenerator(cs, u.Literals())
	expr := sc.build(u, cs, g)

	fmt.Printf("scenario %q: %s\n", args[0], sc.describe)
	fmt.Printf("expression: %s\n", expr)

	if g.Errors().HasError() {
		for _, err := range g.Errors().Errors() {
			fmt.Println(serr.FormatWithCode(err))
		}
		return fmt.Errorf("constraint generation failed")
	}

	solutions, errs := cs.Solve()
	for _, err := range errs.Errors() {
		fmt.Println(serr.FormatWithCode(err))
	}
	for i, solution := range solutions {
		fmt.Printf("solution %d (score %s):\n", i+1, solution.Score())
		g.ApplySolution(solution)
		printResolved(expr, "  ")
	}
	stats := cs.Stats()
	fmt.Printf("steps: %d, checkpoints: %d, bindings: %d, max depth: %d\n",
		stats.Steps, stats.Checkpoints, stats.Bindings, stats.MaxDepth)
	if errs.HasError() {
		return fmt.Errorf("no unique solution")
	}
	return nil
}

func printResolved(expr ast.Expr, indent string) {
	fmt.Printf("%s%s : %v\n", indent, expr, expr.ResolvedType())
	for child := range expr.Children() {
		printResolved(child, indent+"  ")
	}
}
