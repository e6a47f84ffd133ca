package workflow

import (
	"context"
	"fmt"

	"github.com/fyerfyer/expert-QA-system/internal/llm"
	"github.com/fyerfyer/expert-QA-system/internal/retriever"
)

// RAGStep 检索增强生成步骤
// 检索与问题相关的文档，交给大模型生成回答并追加到执行状态
type RAGStep struct {
	retriever *retriever.Retriever
	rag       *llm.RAGService
}

// NewRAGStep 创建检索增强生成步骤
func NewRAGStep(r *retriever.Retriever, rag *llm.RAGService) *RAGStep {
	return &RAGStep{
		retriever: r,
		rag:       rag,
	}
}

// Name 返回步骤名称
func (s *RAGStep) Name() string {
	return "rag"
}

// Run 执行检索和生成
func (s *RAGStep) Run(ctx context.Context, state *State) error {
	question := state.Question()

	results, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return fmt.Errorf("retrieval failed: %v", err)
	}

	contexts := make([]string, len(results))
	for i, result := range results {
		contexts[i] = result.Document.Text
	}

	response, err := s.rag.Answer(ctx, question, contexts)
	if err != nil {
		return fmt.Errorf("answer generation failed: %v", err)
	}

	state.Append(response.Answer)
	return nil
}
