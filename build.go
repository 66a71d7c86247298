//go:build ignore

// build.go - predictive maintenance dashboard build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, trainer, fixture, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "predmaint"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

var (
	distDir = "dist"

	// Executable names (key = source dir under cmd/, value = output name)
	executables = map[string]string{
		"web":     "predmaint-web",
		"trainer": "predmaint-trainer",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}

	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "web", "trainer":
		err = buildExecutable(*target, ctx)
	case "fixture":
		err = generateFixture(ctx)
	case "test":
		err = runTests(ctx)
	case "clean":
		err = clean()
	case "release":
		err = buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "   Predictive Maintenance - Build System   " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) error {
	printInfo("Building all executables...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", distDir, err)
	}
	for name := range executables {
		if err := buildExecutable(name, ctx); err != nil {
			return err
		}
	}
	return copyConfig()
}

func buildExecutable(name string, ctx *BuildContext) error {
	exeName := executables[name]
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, ctx.GOOS, ctx.GOARCH))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.BuildTime=%s", module, time.Now().UTC().Format(time.RFC3339))

	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/" + name}
	if ctx.Verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
	}

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH)
	if err := runCommand(cmd, ctx.Verbose); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, float64(info.Size())/1024/1024))
	}
	return nil
}

// generateFixture writes a synthetic dataset for manual testing of the dashboard
func generateFixture(ctx *BuildContext) error {
	out := filepath.Join("testdata", "machines.csv")
	printInfo("Generating " + out + "...")
	cmd := exec.Command("go", "run", "./cmd/trainer", "-generate", out, "-rows", "10000")
	return runCommand(cmd, true)
}

func runTests(ctx *BuildContext) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")
	if err := runCommand(exec.Command("go", args...), true); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	printSuccess("All tests passed")
	return nil
}

func clean() error {
	printInfo("Cleaning build artifacts and logs...")
	for _, dir := range []string{distDir, "logs"} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	printSuccess("Build artifacts cleaned")
	return nil
}

func buildRelease(ctx *BuildContext) error {
	printInfo("Building release version...")
	if err := clean(); err != nil {
		return err
	}
	os.Setenv("CGO_ENABLED", "0")
	if err := buildAll(ctx); err != nil {
		return err
	}

	content := fmt.Sprintf("%s\nBuilt: %s\nPlatform: %s/%s\n", module, time.Now().Format("2006-01-02 15:04:05"), ctx.GOOS, ctx.GOARCH)
	if err := os.WriteFile(filepath.Join(distDir, "VERSION.txt"), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}
	printSuccess("Release build completed")
	return nil
}

// copyConfig ships the sample configuration next to the binaries
func copyConfig() error {
	src := filepath.Join("configs", "config.yaml")
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		printWarning("No " + src + " found, binaries will run on defaults and PM_* variables")
		return nil
	}
	if err != nil {
		return err
	}
	dest := filepath.Join(distDir, "configs", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

func runCommand(cmd *exec.Cmd, stream bool) error {
	if stream {
		fmt.Printf("Running: %s\n", strings.Join(cmd.Args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all       Build the web server and trainer (default)")
	fmt.Println("  web       Build the dashboard server")
	fmt.Println("  trainer   Build the offline trainer")
	fmt.Println("  fixture   Generate testdata/machines.csv")
	fmt.Println("  test      Run all tests with the race detector")
	fmt.Println("  clean     Remove dist/ and logs/")
	fmt.Println("  release   Clean, then build static binaries with a VERSION.txt")
}
