package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shinyes/yep_lww/pkg/store"
	"github.com/shinyes/yep_lww/replica"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data", "./tmp/lww_demo", "数据目录")
	reset := flag.Bool("reset", false, "启动前重置本地数据目录")
	debug := flag.Bool("debug", false, "开启调试日志")
	flag.Parse()

	if !*debug {
		log.SetOutput(io.Discard)
	}

	if *reset {
		if err := os.RemoveAll(*dataDir); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return err
	}

	kv, err := store.NewBadgerStore(filepath.Join(*dataDir, "state"))
	if err != nil {
		return err
	}
	defer kv.Close()

	rep, err := replica.New(replica.WithStore(kv))
	if err != nil {
		return err
	}

	printBanner(rep, *dataDir)
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := handleCommand(rep, line)
		if err != nil {
			fmt.Printf("错误: %v\n", err)
		}
		if quit {
			break
		}
	}

	if err := rep.Checkpoint(); err != nil {
		return err
	}
	return scanner.Err()
}

func printBanner(rep *replica.Replica, dataDir string) {
	fmt.Println("yep_lww 简易交互 Demo")
	fmt.Printf("副本 ID:   %s\n", rep.ID())
	fmt.Printf("数据目录:  %s\n", dataDir)
	fmt.Println("在另一个目录启动第二个副本，通过 export/import 交换快照文件验证收敛")
}

func printHelp() {
	fmt.Println("\n命令：")
	fmt.Println("  help")
	fmt.Println("  add <elem>")
	fmt.Println("  remove <elem>")
	fmt.Println("  show <elem>")
	fmt.Println("  list")
	fmt.Println("  export <file>")
	fmt.Println("  import <file>")
	fmt.Println("  save")
	fmt.Println("  quit")
	fmt.Println("\n快速开始（两个终端）：")
	fmt.Println("  1) go run ./cmd/demo -data ./tmp/a -reset")
	fmt.Println("  2) go run ./cmd/demo -data ./tmp/b -reset")
	fmt.Println("  然后在一侧 export /tmp/snap，另一侧 import /tmp/snap")
}

func handleCommand(rep *replica.Replica, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "help":
		printHelp()
		return false, nil

	case "add":
		elem, err := elemArg(parts, "add <elem>")
		if err != nil {
			return false, err
		}
		ts := rep.Add(elem)
		fmt.Printf("已添加: %s (时间戳 %d)\n", elem, ts)
		return false, nil

	case "remove":
		elem, err := elemArg(parts, "remove <elem>")
		if err != nil {
			return false, err
		}
		if !rep.Contains(elem) {
			fmt.Printf("%s 当前不可见, 移除被忽略\n", elem)
			return false, nil
		}
		rep.Remove(elem)
		fmt.Println("已移除")
		return false, nil

	case "show":
		elem, err := elemArg(parts, "show <elem>")
		if err != nil {
			return false, err
		}
		if ts, ok := rep.Lookup(elem); ok {
			fmt.Printf("%s 可见 (时间戳 %d)\n", elem, ts)
		} else {
			fmt.Printf("%s 不可见\n", elem)
		}
		return false, nil

	case "list":
		elems := rep.Elements()
		sort.Strings(elems)
		if len(elems) == 0 {
			fmt.Println("(空)")
			return false, nil
		}
		for _, elem := range elems {
			ts, _ := rep.Lookup(elem)
			fmt.Printf("%s (时间戳 %d)\n", elem, ts)
		}
		return false, nil

	case "export":
		if len(parts) < 2 {
			return false, fmt.Errorf("用法: export <file>")
		}
		data, err := rep.Snapshot()
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(parts[1], data, 0o644); err != nil {
			return false, err
		}
		fmt.Printf("已导出 %d 字节到 %s\n", len(data), parts[1])
		return false, nil

	case "import":
		if len(parts) < 2 {
			return false, fmt.Errorf("用法: import <file>")
		}
		data, err := os.ReadFile(parts[1])
		if err != nil {
			return false, err
		}
		if err := rep.ApplyRemote(data); err != nil {
			return false, err
		}
		fmt.Println("已合并远端快照")
		return false, nil

	case "save":
		if err := rep.Checkpoint(); err != nil {
			return false, err
		}
		fmt.Println("已保存检查点")
		return false, nil

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("未知命令: %s", cmd)
	}
}

func elemArg(parts []string, usage string) (string, error) {
	elem := strings.TrimSpace(strings.Join(parts[1:], " "))
	if elem == "" {
		return "", fmt.Errorf("用法: %s", usage)
	}
	return elem, nil
}
