package hardware

type ModelRecommendation struct {
	ModelName   string  `json:"model_name"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description"`
	SizeGB      float64 `json:"size_gb"`
	Recommended bool    `json:"recommended"`
	Reason      string  `json:"reason"`
}

// Recommend returns a primary and an alternative model for the given VRAM.
func Recommend(vramMB uint64) []ModelRecommendation {
	switch {
	case vramMB >= 24000:
		return []ModelRecommendation{
			{"qwen2.5:32b", "Qwen 2.5 32B", "Powerful reasoning model, excellent for complex tasks", 19.0, true, "Your GPU has enough VRAM for large models"},
			{"deepseek-r1:14b", "DeepSeek R1 14B", "Strong reasoning with chain-of-thought", 9.0, false, "Great alternative with reasoning capabilities"},
		}
	case vramMB >= 8000:
		return []ModelRecommendation{
			{"qwen2.5:14b", "Qwen 2.5 14B", "Balanced performance and quality", 9.0, true, "Optimal for your GPU VRAM"},
			{"llama3.1:8b", "Llama 3.1 8B", "Fast and efficient general-purpose model", 4.7, false, "Lighter alternative with good performance"},
		}
	case vramMB >= 4000:
		return []ModelRecommendation{
			{"qwen2.5:7b", "Qwen 2.5 7B", "Good balance of speed and capability", 4.4, true, "Best fit for your VRAM capacity"},
			{"phi3:mini", "Phi-3 Mini", "Compact but capable model from Microsoft", 2.3, false, "Lightweight option for limited VRAM"},
		}
	default:
		return []ModelRecommendation{
			{"qwen2.5:3b", "Qwen 2.5 3B", "Lightweight model that runs on CPU", 1.9, true, "Runs well on CPU with limited GPU resources"},
			{"tinyllama", "TinyLlama", "Extremely lightweight for basic tasks", 0.6, false, "Minimal resource requirements"},
		}
	}
}
