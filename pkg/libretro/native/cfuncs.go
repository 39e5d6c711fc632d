package native

/*
#include "bridge.h"
#include <stdarg.h>
#include <stdio.h>

void bridge_retro_init(void *f) {
	((void (*)(void))f)();
}

void bridge_retro_deinit(void *f) {
	((void (*)(void))f)();
}

unsigned bridge_retro_api_version(void *f) {
	return ((unsigned (*)(void))f)();
}

void bridge_retro_get_system_info(void *f, struct retro_system_info *si) {
	((void (*)(struct retro_system_info *))f)(si);
}

void bridge_retro_get_system_av_info(void *f, struct retro_system_av_info *si) {
	((void (*)(struct retro_system_av_info *))f)(si);
}

void bridge_retro_set_environment(void *f, void *callback) {
	((void (*)(retro_environment_t))f)((retro_environment_t)callback);
}

void bridge_retro_set_video_refresh(void *f, void *callback) {
	((void (*)(retro_video_refresh_t))f)((retro_video_refresh_t)callback);
}

void bridge_retro_set_input_poll(void *f, void *callback) {
	((void (*)(retro_input_poll_t))f)((retro_input_poll_t)callback);
}

void bridge_retro_set_input_state(void *f, void *callback) {
	((void (*)(retro_input_state_t))f)((retro_input_state_t)callback);
}

void bridge_retro_set_audio_sample(void *f, void *callback) {
	((void (*)(retro_audio_sample_t))f)((retro_audio_sample_t)callback);
}

void bridge_retro_set_audio_sample_batch(void *f, void *callback) {
	((void (*)(retro_audio_sample_batch_t))f)((retro_audio_sample_batch_t)callback);
}

bool bridge_retro_load_game(void *f, struct retro_game_info *gi) {
	return ((bool (*)(struct retro_game_info *))f)(gi);
}

bool bridge_retro_load_game_special(void *f, unsigned game_type, struct retro_game_info *gi, size_t num) {
	return ((bool (*)(unsigned, struct retro_game_info *, size_t))f)(game_type, gi, num);
}

void bridge_retro_unload_game(void *f) {
	((void (*)(void))f)();
}

void bridge_retro_run(void *f) {
	((void (*)(void))f)();
}

void bridge_retro_reset(void *f) {
	((void (*)(void))f)();
}

size_t bridge_retro_serialize_size(void *f) {
	return ((size_t (*)(void))f)();
}

bool bridge_retro_serialize(void *f, void *data, size_t size) {
	return ((bool (*)(void *, size_t))f)(data, size);
}

bool bridge_retro_unserialize(void *f, void *data, size_t size) {
	return ((bool (*)(void *, size_t))f)(data, size);
}

void bridge_retro_cheat_reset(void *f) {
	((void (*)(void))f)();
}

void bridge_retro_cheat_set(void *f, unsigned index, bool enabled, const char *code) {
	((void (*)(unsigned, bool, const char *))f)(index, enabled, code);
}

unsigned bridge_retro_get_region(void *f) {
	return ((unsigned (*)(void))f)();
}

size_t bridge_retro_get_memory_size(void *f, unsigned id) {
	return ((size_t (*)(unsigned))f)(id);
}

void *bridge_retro_get_memory_data(void *f, unsigned id) {
	return ((void *(*)(unsigned))f)(id);
}

void bridge_retro_set_controller_port_device(void *f, unsigned port, unsigned device) {
	((void (*)(unsigned, unsigned))f)(port, device);
}

bool core_environment_cgo(unsigned cmd, void *data) {
	bool coreEnvironment(unsigned, void *);
	return coreEnvironment(cmd, data);
}

void core_video_refresh_cgo(void *data, unsigned width, unsigned height, size_t pitch) {
	void coreVideoRefresh(void *, unsigned, unsigned, size_t);
	coreVideoRefresh(data, width, height, pitch);
}

void core_input_poll_cgo(void) {
	void coreInputPoll(void);
	coreInputPoll();
}

int16_t core_input_state_cgo(unsigned port, unsigned device, unsigned index, unsigned id) {
	int16_t coreInputState(unsigned, unsigned, unsigned, unsigned);
	return coreInputState(port, device, index, id);
}

void core_audio_sample_cgo(int16_t left, int16_t right) {
	void coreAudioSample(int16_t, int16_t);
	coreAudioSample(left, right);
}

size_t core_audio_sample_batch_cgo(const int16_t *data, size_t frames) {
	size_t coreAudioSampleBatch(const int16_t *, size_t);
	return coreAudioSampleBatch(data, frames);
}

void core_log_cgo(enum retro_log_level level, const char *fmt, ...) {
	void coreLog(enum retro_log_level, const char *);
	char msg[4096] = {0};
	va_list va;
	va_start(va, fmt);
	vsnprintf(msg, sizeof(msg), fmt, va);
	va_end(va);
	coreLog(level, msg);
}
*/
import "C"
