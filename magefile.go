//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default 默认任务：显示帮助信息
func Default() {
	fmt.Println("ytplayer 构建系统")
	fmt.Println("================")
	fmt.Println("可用任务:")
	fmt.Println("  mage build     - 构建 ytplayer 二进制文件")
	fmt.Println("  mage test      - 运行所有测试")
	fmt.Println("  mage lint      - 运行代码检查")
	fmt.Println("  mage coverage  - 生成测试覆盖率报告")
	fmt.Println("  mage clean     - 清理构建产物")
}

// Build 构建 ytplayer 二进制文件
func Build() error {
	mg.Deps(Clean)

	fmt.Println("构建 ytplayer...")
	output := filepath.Join("bin", "ytplayer")
	if runtime.GOOS == "windows" {
		output += ".exe"
	}
	return sh.RunV("go", "build", "-o", output, "./cmd/ytplayer")
}

// Test 运行所有测试
func Test() error {
	fmt.Println("运行测试...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint 运行代码检查
func Lint() error {
	fmt.Println("运行代码检查...")
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("gofmt", "-l", ".")
}

// Coverage 生成测试覆盖率报告
func Coverage() error {
	fmt.Println("生成覆盖率报告...")
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Clean 清理构建产物
func Clean() error {
	fmt.Println("清理构建产物...")
	for _, path := range []string{"bin", "coverage.out", "coverage.html"} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}
